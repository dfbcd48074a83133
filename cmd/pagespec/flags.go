package main

import "strings"

// stringList collects a repeatable flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ", ")
}

// Set is called by the command line parser
func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
