package event

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/dao"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
)

// ReportWriter 训练报告审计写入
type ReportWriter interface {
	InsertReports(ctx context.Context, records []dao.ReportRecord) error
}

// AuditSink 把 TrainingRewarded 写入审计表，其他事件忽略
type AuditSink struct {
	writer ReportWriter
}

// NewAuditSink 创建审计 Sink
func NewAuditSink(w ReportWriter) *AuditSink {
	return &AuditSink{writer: w}
}

func (s *AuditSink) Name() string { return "audit" }

// Publish 无法落表的记录跳过，其余照常写入，错误合并返回
func (s *AuditSink) Publish(ctx context.Context, events []model.Event) error {
	var (
		records []dao.ReportRecord
		errs    error
	)
	for _, ev := range events {
		if ev.Type != model.EventTrainingRewarded {
			continue
		}
		p, ok := ev.Payload.(model.TrainingRewarded)
		if !ok {
			continue
		}
		record, err := dao.NewReportRecord(ev, p)
		if err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "event %d", ev.ID))
			continue
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return errs
	}
	return errors.CombineErrors(errs, s.writer.InsertReports(ctx, records))
}
