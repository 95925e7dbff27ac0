// File: internal/formfill/descriptors.go
package formfill

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/notefill/internal/browser/page"
	"github.com/xkilldash9x/notefill/internal/domain"
)

// FieldIDType is the document-type dropdown, only driven by the descriptor fill.
const FieldIDType = "id_type"

// Descriptors lists, per field, the attribute matches tried in order when
// the page does not follow the positional layout.
var Descriptors = map[string][]page.Descriptor{
	domain.FieldName: {
		{Attr: "name", Needle: "name"},
		{Attr: "placeholder", Needle: "姓名"},
	},
	domain.FieldIDNumber: {
		{Attr: "name", Needle: "id"},
		{Attr: "placeholder", Needle: "证件"},
		{Attr: "placeholder", Needle: "身份证"},
	},
	domain.FieldPhone: {
		{Attr: "name", Needle: "phone"},
		{Attr: "name", Needle: "mobile"},
		{Attr: "placeholder", Needle: "手机"},
	},
	domain.FieldQuantity: {
		{Attr: `type="number"`},
		{Attr: "name", Needle: "quantity"},
		{Attr: "placeholder", Needle: "数量"},
	},
}

// FillByDescriptors fills each basic field into the first input matching one
// of its descriptors, then tries to pick the document type from a native
// select. The document type is best effort and never fails the report.
func (f *Filler) FillByDescriptors(ctx context.Context, p page.Page, id domain.Identity, quantity int) Report {
	var rep Report
	values := Values(id, quantity)

	for _, field := range domain.BasicFields {
		var last Outcome
		for _, d := range Descriptors[field] {
			last = f.fillOne(ctx, p, field, d.Criteria(), -1, values[field])
			if last.OK {
				break
			}
		}
		if !last.OK {
			last.Err = &domain.FieldFillError{Field: field, Index: -1, Reason: "no input matched any descriptor"}
		}
		rep.add(last)
	}

	if id.IDType != "" {
		ok, err := p.SelectNative(ctx, "select", id.IDType)
		switch {
		case err != nil:
			f.logger.Debug("Document type select failed.", zap.Error(err))
		case ok:
			rep.Logs = append(rep.Logs, fmt.Sprintf("✅ %s: %s", FieldIDType, id.IDType))
		}
	}
	return rep
}
