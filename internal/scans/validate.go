package scans

import (
	"fmt"
	"strings"
)

// Validate checks a submission is well-formed before any analysis work
// starts. It is synchronous, total, and touches no IO. A nil return means
// the submission may enter a run unchanged.
func Validate(sub Submission) error {
	switch sub.Kind {
	case KindText:
		if strings.TrimSpace(sub.Text) == "" {
			return &ValidationError{
				Code:    ErrorCodeEmptyInput,
				Warning: "Please paste or type a message before analyzing.",
			}
		}
	case KindVideo, KindAudio:
		if sub.Media == nil {
			return &ValidationError{
				Code:    ErrorCodeMissingFile,
				Warning: fmt.Sprintf("Please upload a %s file before analyzing.", sub.Kind),
			}
		}
	case KindDocument:
		if sub.Media == nil {
			return &ValidationError{
				Code:    ErrorCodeMissingFile,
				Warning: "Please upload a document file before analyzing.",
			}
		}
		if strings.TrimSpace(sub.Media.LiftedText) == "" {
			return &ValidationError{
				Code:    ErrorCodeEmptyInput,
				Warning: "The uploaded document contains no readable text.",
			}
		}
	default:
		return &ValidationError{
			Code:    ErrorCodeEmptyInput,
			Warning: "Please choose text, video, or audio to analyze.",
		}
	}
	return nil
}
