package document

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/valpere/pagetran/internal/apperrors"
)

// Info is the structural summary of an uploaded PDF.
type Info struct {
	Pages     int    `json:"pages"`
	Version   string `json:"version"`
	Encrypted bool   `json:"encrypted"`
}

// Inspect parses and validates a PDF without extracting any text.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, apperrors.Validation("empty PDF upload")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return Info{}, apperrors.New(apperrors.KindValidation, "File is not a readable PDF.", fmt.Errorf("failed to read PDF: %w", err))
	}
	if err := api.ValidateContext(ctx); err != nil {
		return Info{}, apperrors.New(apperrors.KindValidation, "File is not a valid PDF.", fmt.Errorf("failed to validate PDF: %w", err))
	}

	return Info{
		Pages:     ctx.PageCount,
		Version:   ctx.XRefTable.VersionString(),
		Encrypted: ctx.Encrypt != nil,
	}, nil
}
