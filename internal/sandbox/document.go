package sandbox

import (
	"github.com/dop251/goja"
)

// injectDOM exposes the parsed markup as document
func (e *Environment) injectDOM() error {
	document := e.vm.NewObject()

	document.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		elems := e.dom.Query(call.Argument(0).String())
		if len(elems) == 0 {
			return goja.Null()
		}
		return e.createElementProxy(elems[0])
	})
	document.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return e.elementList(e.dom.Query(call.Argument(0).String()))
	})
	document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		elem := e.dom.ByID(call.Argument(0).String())
		if elem == nil {
			return goja.Null()
		}
		return e.createElementProxy(elem)
	})
	document.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		return e.elementList(e.dom.ByClass(call.Argument(0).String()))
	})
	document.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return e.elementList(e.dom.ByTag(call.Argument(0).String()))
	})

	e.accessor(document, "title", func() goja.Value {
		return e.vm.ToValue(e.dom.Title())
	}, nil)
	e.accessor(document, "body", func() goja.Value {
		return e.proxyOrNull(e.dom.Body())
	}, nil)
	e.accessor(document, "documentElement", func() goja.Value {
		return e.proxyOrNull(e.dom.Root())
	}, nil)

	return e.vm.Set("document", document)
}

// createElementProxy creates a live proxy for a DOM element
func (e *Environment) createElementProxy(elem *Element) goja.Value {
	obj := e.vm.NewObject()

	obj.Set("tagName", elem.TagName())
	obj.Set("nodeName", elem.TagName())
	e.accessor(obj, "id", func() goja.Value {
		return e.vm.ToValue(elem.ID())
	}, func(v goja.Value) {
		elem.SetAttribute("id", v.String())
	})
	e.accessor(obj, "className", func() goja.Value {
		return e.vm.ToValue(elem.ClassName())
	}, func(v goja.Value) {
		elem.SetAttribute("class", v.String())
	})
	e.accessor(obj, "textContent", func() goja.Value {
		return e.vm.ToValue(elem.Text())
	}, func(v goja.Value) {
		elem.SetText(v.String())
	})
	e.accessor(obj, "innerHTML", func() goja.Value {
		return e.vm.ToValue(elem.HTML())
	}, nil)
	e.accessor(obj, "outerHTML", func() goja.Value {
		return e.vm.ToValue(elem.OuterHTML())
	}, nil)

	obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		v, ok := elem.GetAttribute(call.Argument(0).String())
		if !ok {
			return goja.Null()
		}
		return e.vm.ToValue(v)
	})
	obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		elem.SetAttribute(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	obj.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		_, ok := elem.GetAttribute(call.Argument(0).String())
		return e.vm.ToValue(ok)
	})

	return obj
}

func (e *Environment) proxyOrNull(elem *Element) goja.Value {
	if elem == nil {
		return goja.Null()
	}
	return e.createElementProxy(elem)
}

func (e *Environment) elementList(elems []*Element) goja.Value {
	proxies := make([]interface{}, len(elems))
	for i, elem := range elems {
		proxies[i] = e.createElementProxy(elem)
	}
	return e.vm.NewArray(proxies...)
}

// accessor defines an enumerable getter (and optional setter) on obj
func (e *Environment) accessor(obj *goja.Object, name string, get func() goja.Value, set func(goja.Value)) {
	getter := e.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return get()
	})
	var setter goja.Value
	if set != nil {
		setter = e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		})
	}
	obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
}
