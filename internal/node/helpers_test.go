package node

import (
	"context"

	"git.home.luguber.info/inful/docnodes/internal/resources"
)

type stub struct {
	Base
	text  string
	err   error
	panic bool
	res   *resources.Resources
	calls int
}

func newStub(text string, opts ...Option) *stub {
	s := &stub{text: text}
	s.Init(s, "stub", opts...)
	return s
}

func (s *stub) Content(context.Context) (ContentResult, error) {
	s.calls++
	if s.panic {
		panic("boom")
	}
	if s.err != nil {
		return ContentResult{}, s.err
	}
	return NewContentResult(s.text, s.res), nil
}
