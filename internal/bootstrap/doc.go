/*
Package bootstrap loads scripts into a sandboxed page and publishes what they
define to a globals.Namespace.

A Bootstrapper is a one-shot asynchronous operation. Start delivers exactly one
Outcome on its channel and closes it; Load awaits that outcome; Run also
installs the window's exports into the namespace. Setup adapts Run to an
error-first completion callback for harnesses that expect one.

Failures carry one of two kinds, matched with errors.Is:

  - sandbox.ErrConstruction: the window could not be built or a script could
    not be read
  - sandbox.ErrEvaluation: a script threw, failed to compile or timed out

On failure the namespace is never touched.

Typical use from a Ginkgo suite:

	var _ = BeforeSuite(func(ctx SpecContext) {
		src, err := bootstrap.SubjectPath("index.js")
		Expect(err).NotTo(HaveOccurred())
		_, err = bootstrap.New(bootstrap.Options{Scripts: []string{src}}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
	})
*/
package bootstrap
