package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"aper/internal/domain/evaluation"
)

// Uploader stores rendered documents.
type Uploader interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
}

// ObjectName is where the final report of a record is stored.
func ObjectName(recordID string) string {
	return fmt.Sprintf("evaluations/%s.pdf", recordID)
}

// Hook renders the full report when a record is countersigned and hands
// it to up.
func Hook(gate *evaluation.Gate, up Uploader, logger *zap.Logger) evaluation.Hook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return evaluation.HookFunc(func(ctx context.Context, evt evaluation.Event) error {
		if evt.Type != evaluation.EventAdvanced || evt.To != evaluation.StageCountersigned || evt.Record == nil {
			return nil
		}
		view, err := evaluation.Compose(gate, evt.Record, evaluation.RoleCountersigningOfficer, evt.At)
		if err != nil {
			return err
		}
		doc, err := RenderPDF(view)
		if err != nil {
			return err
		}
		name := ObjectName(evt.RecordID)
		if err := up.Put(ctx, name, ContentTypePDF, doc); err != nil {
			return err
		}
		logger.Info("evaluation report exported", zap.String("recordId", evt.RecordID), zap.String("object", name))
		return nil
	})
}
