// SPDX-License-Identifier: Apache-2.0

package coding

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/rotisserie/eris"
)

//go:embed contract.cue
var contractSource string

// Contract checks a normalized analysis against the CUE description of the
// classifier contract and reports drift without rejecting the analysis.
type Contract struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// NewContract compiles the embedded schema.
func NewContract() (*Contract, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(contractSource, cue.Filename("contract.cue"))
	if err := schema.Err(); err != nil {
		return nil, eris.Wrap(err, "coding: compile contract")
	}
	def := schema.LookupPath(cue.ParsePath("#CodingAnalysis"))
	if err := def.Err(); err != nil {
		return nil, eris.Wrap(err, "coding: lookup #CodingAnalysis")
	}
	return &Contract{ctx: ctx, def: def}, nil
}

// Check returns one warning per contract violation, or nil when the analysis conforms.
func (c *Contract) Check(a *CodingAnalysis) []string {
	if a == nil {
		return nil
	}
	// cue.Context is not safe for concurrent use.
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.ctx.Encode(a)
	if err := v.Err(); err != nil {
		return []string{err.Error()}
	}
	err := c.def.Unify(v).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var warnings []string
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := strings.Join(e.Path(), "."); path != "" {
			msg = path + ": " + msg
		}
		warnings = append(warnings, msg)
	}
	return warnings
}
