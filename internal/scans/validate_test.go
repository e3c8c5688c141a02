package scans

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		sub         Submission
		wantCode    string
		wantWarning string
	}{
		{
			name: "text present",
			sub:  Submission{Kind: KindText, Text: "hello there"},
		},
		{
			name:        "text empty",
			sub:         Submission{Kind: KindText, Text: ""},
			wantCode:    ErrorCodeEmptyInput,
			wantWarning: "Please paste or type a message before analyzing.",
		},
		{
			name:        "text whitespace only",
			sub:         Submission{Kind: KindText, Text: "   \n\t "},
			wantCode:    ErrorCodeEmptyInput,
			wantWarning: "Please paste or type a message before analyzing.",
		},
		{
			name:        "video missing file",
			sub:         Submission{Kind: KindVideo},
			wantCode:    ErrorCodeMissingFile,
			wantWarning: "Please upload a video file before analyzing.",
		},
		{
			name:        "audio missing file",
			sub:         Submission{Kind: KindAudio},
			wantCode:    ErrorCodeMissingFile,
			wantWarning: "Please upload a audio file before analyzing.",
		},
		{
			name: "video with file",
			sub:  Submission{Kind: KindVideo, Media: &MediaRef{ID: "m1"}},
		},
		{
			name:     "document missing file",
			sub:      Submission{Kind: KindDocument},
			wantCode: ErrorCodeMissingFile,
		},
		{
			name:     "document without readable text",
			sub:      Submission{Kind: KindDocument, Media: &MediaRef{ID: "m1"}},
			wantCode: ErrorCodeEmptyInput,
		},
		{
			name: "document with lifted text",
			sub:  Submission{Kind: KindDocument, Media: &MediaRef{ID: "m1", LiftedText: "urgent: verify your account"}},
		},
		{
			name:     "unknown kind",
			sub:      Submission{Kind: Kind("image")},
			wantCode: ErrorCodeEmptyInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.sub)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("expected valid submission, got %v", err)
				}
				return
			}
			verr, ok := AsValidation(err)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Code != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, verr.Code)
			}
			if tt.wantWarning != "" && verr.Warning != tt.wantWarning {
				t.Fatalf("expected warning %q, got %q", tt.wantWarning, verr.Warning)
			}
		})
	}
}
