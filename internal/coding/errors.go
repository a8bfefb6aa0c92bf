// SPDX-License-Identifier: Apache-2.0

package coding

import "github.com/rotisserie/eris"

// Failure kinds for an analysis run. All of them are terminal for the run;
// the reviewer decides whether to retry.
var (
	// ErrMalformedPayload means the upstream text is not structured data, even after fence stripping.
	ErrMalformedPayload = eris.New("malformed payload")
	// ErrMissingRequiredField means the payload lacks a summary or a codes sequence.
	ErrMissingRequiredField = eris.New("missing required field")
	// ErrEmptyUpstreamResponse means the classifier reported success but returned no text.
	ErrEmptyUpstreamResponse = eris.New("no response received from the coding engine")
)
