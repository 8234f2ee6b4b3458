// Package inputs resolves raw command-line flag pairs into typed workflow
// inputs against a workflow's declared interface. All side effects
// (upload-location issuance, file transfer) go through injected
// collaborators so the resolution logic itself stays pure.
package inputs

import (
	"context"
	"strconv"
	"strings"

	"github.com/me/flowctl/pkg/workflow"
)

// UploadFactory issues an upload location for one staged file.
type UploadFactory func(ctx context.Context) (workflow.UploadLocation, error)

// FileWriter transfers a local file to an externally-writable signed URL.
type FileWriter func(ctx context.Context, localPath, signedURL string) error

// Resolve consumes tokens two at a time ("--name value", in order) and
// returns a map from input name to a value of the declared type.
//
// Resolution per pair: strip the flag prefix, look the name up in the
// interface, then branch on the declared type tag:
//
//   - string: the raw value, unchanged
//   - integer: strconv.Atoi of the raw value
//   - structured_dataset: the raw value is a local file path; one upload
//     location is acquired and the file is written to its signed URL, and
//     the result wraps the location's internal URI
//
// Any other declared tag fails with UnsupportedTypeError. A trailing flag
// with no value fails with DanglingFlagError. Upload locations are
// acquired in token order.
func Resolve(ctx context.Context, tokens []string, iface workflow.Interface, upload UploadFactory, put FileWriter) (map[string]any, error) {
	args := make(map[string]any, len(tokens)/2)

	for i := 0; i < len(tokens); i += 2 {
		name := strings.TrimPrefix(tokens[i], "--")
		if i+1 >= len(tokens) {
			return nil, &workflow.DanglingFlagError{Name: name}
		}
		value := tokens[i+1]

		tag, ok := iface.Inputs[name]
		if !ok {
			return nil, &workflow.UnknownInputError{Name: name}
		}

		switch tag {
		case workflow.TypeString:
			args[name] = value

		case workflow.TypeInteger:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &workflow.ConversionError{Name: name, Value: value, Err: err}
			}
			args[name] = n

		case workflow.TypeStructuredDataset:
			loc, err := upload(ctx)
			if err != nil {
				return nil, err
			}
			if err := put(ctx, value, loc.SignedURL); err != nil {
				return nil, err
			}
			args[name] = workflow.StructuredDataset{URI: loc.NativeURL}

		default:
			return nil, &workflow.UnsupportedTypeError{Name: name, Type: tag}
		}
	}

	return args, nil
}
