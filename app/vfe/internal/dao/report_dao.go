package dao

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/database/postgres"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

const reportTable = "training_reports"

// Schema 训练报告审计表
const Schema = `CREATE TABLE IF NOT EXISTS training_reports (
	event_id                 BIGINT PRIMARY KEY,
	public_key               TEXT        NOT NULL,
	brand_id                 BIGINT      NOT NULL,
	item_id                  BIGINT      NOT NULL,
	owner                    TEXT        NOT NULL,
	report_timestamp         BIGINT      NOT NULL,
	duration_seconds         INTEGER     NOT NULL,
	counted_duration_seconds INTEGER     NOT NULL,
	total_count              INTEGER     NOT NULL,
	avg_speed                INTEGER     NOT NULL,
	max_speed                INTEGER     NOT NULL,
	max_count                INTEGER     NOT NULL,
	interruptions            SMALLINT    NOT NULL,
	power_used               INTEGER     NOT NULL,
	volume                   BIGINT      NOT NULL,
	reward                   BIGINT      NOT NULL,
	height                   BIGINT      NOT NULL,
	created_at               TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_training_reports_device ON training_reports (public_key, report_timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_training_reports_owner ON training_reports (owner, created_at DESC);`

var reportColumns = []string{
	"event_id", "public_key", "brand_id", "item_id", "owner",
	"report_timestamp", "duration_seconds", "counted_duration_seconds",
	"total_count", "avg_speed", "max_speed", "max_count", "interruptions",
	"power_used", "volume", "reward", "height", "created_at",
}

// ReportRecord 审计表中的一行
type ReportRecord struct {
	EventID                int64     `db:"event_id" json:"event_id"`
	PublicKey              string    `db:"public_key" json:"public_key"`
	BrandID                int64     `db:"brand_id" json:"brand_id"`
	ItemID                 int64     `db:"item_id" json:"item_id"`
	Owner                  string    `db:"owner" json:"owner"`
	ReportTimestamp        int64     `db:"report_timestamp" json:"report_timestamp"`
	DurationSeconds        int32     `db:"duration_seconds" json:"duration_seconds"`
	CountedDurationSeconds int32     `db:"counted_duration_seconds" json:"counted_duration_seconds"`
	TotalCount             int32     `db:"total_count" json:"total_count"`
	AvgSpeed               int32     `db:"avg_speed" json:"avg_speed"`
	MaxSpeed               int32     `db:"max_speed" json:"max_speed"`
	MaxCount               int32     `db:"max_count" json:"max_count"`
	Interruptions          int16     `db:"interruptions" json:"interruptions"`
	PowerUsed              int32     `db:"power_used" json:"power_used"`
	Volume                 int64     `db:"volume" json:"volume"`
	Reward                 int64     `db:"reward" json:"reward"`
	Height                 int64     `db:"height" json:"height"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// NewReportRecord 由 TrainingRewarded 事件构造审计记录
// BIGINT 列装不下的 u64 字段返回 ErrValueOverflow
func NewReportRecord(ev model.Event, p model.TrainingRewarded) (ReportRecord, error) {
	volume, err := toBigint("volume", p.Volume)
	if err != nil {
		return ReportRecord{}, err
	}
	reward, err := toBigint("reward", uint64(p.Reward))
	if err != nil {
		return ReportRecord{}, err
	}
	height, err := toBigint("height", uint64(ev.Height))
	if err != nil {
		return ReportRecord{}, err
	}

	r := p.Report
	return ReportRecord{
		EventID:                ev.ID,
		PublicKey:              p.PublicKey.String(),
		BrandID:                int64(p.Brand),
		ItemID:                 int64(p.Item),
		Owner:                  p.Owner.String(),
		ReportTimestamp:        int64(r.Timestamp),
		DurationSeconds:        int32(r.DurationSeconds),
		CountedDurationSeconds: int32(r.CountedDurationSeconds),
		TotalCount:             int32(r.TotalCount),
		AvgSpeed:               int32(r.AvgSpeed),
		MaxSpeed:               int32(r.MaxSpeed),
		MaxCount:               int32(r.MaxCount),
		Interruptions:          int16(r.Interruptions),
		PowerUsed:              int32(p.PowerUsed),
		Volume:                 volume,
		Reward:                 reward,
		Height:                 height,
		CreatedAt:              ev.Time,
	}, nil
}

func toBigint(column string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, errors.Wrapf(vfeerr.ErrValueOverflow, "%s %d exceeds bigint", column, v)
	}
	return int64(v), nil
}

// ReportDAO 训练报告审计数据访问对象
type ReportDAO struct {
	db     *postgres.Client
	logger logger.Logger
}

// NewReportDAO 创建审计 DAO
func NewReportDAO(db *postgres.Client, l logger.Logger) *ReportDAO {
	return &ReportDAO{
		db:     db,
		logger: l.Named("dao.report"),
	}
}

// EnsureSchema 建表
func (d *ReportDAO) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create report schema: %w", err)
	}
	return nil
}

// InsertReports 批量写入，重复的 event_id 忽略
func (d *ReportDAO) InsertReports(ctx context.Context, records []ReportRecord) error {
	if len(records) == 0 {
		return nil
	}
	query, args, err := buildInsertReports(records)
	if err != nil {
		return err
	}

	n, err := d.db.Exec(ctx, query, args...)
	if err != nil {
		d.logger.Error("failed to insert training reports",
			"count", len(records),
			"error", err,
		)
		return fmt.Errorf("failed to insert training reports: %w", err)
	}
	d.logger.Debug("training reports inserted", "count", len(records), "affected", n)
	return nil
}

// ListByDevice 设备最近的报告，按报告时间倒序
func (d *ReportDAO) ListByDevice(ctx context.Context, pk model.PublicKey, limit uint64) ([]*ReportRecord, error) {
	query, args, err := buildListByDevice(pk, limit)
	if err != nil {
		return nil, err
	}
	rows, err := postgres.QueryAll[ReportRecord](d.db, ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list training reports: %w", err)
	}
	return rows, nil
}

// ListByOwner 账户最近的报告
func (d *ReportDAO) ListByOwner(ctx context.Context, owner model.AccountID, limit uint64) ([]*ReportRecord, error) {
	query, args, err := buildListByOwner(owner, limit)
	if err != nil {
		return nil, err
	}
	rows, err := postgres.QueryAll[ReportRecord](d.db, ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list training reports: %w", err)
	}
	return rows, nil
}

func buildInsertReports(records []ReportRecord) (string, []interface{}, error) {
	b := squirrel.
		Insert(reportTable).
		Columns(reportColumns...)
	for _, r := range records {
		b = b.Values(
			r.EventID, r.PublicKey, r.BrandID, r.ItemID, r.Owner,
			r.ReportTimestamp, r.DurationSeconds, r.CountedDurationSeconds,
			r.TotalCount, r.AvgSpeed, r.MaxSpeed, r.MaxCount, r.Interruptions,
			r.PowerUsed, r.Volume, r.Reward, r.Height, r.CreatedAt,
		)
	}
	return b.Suffix("ON CONFLICT (event_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func buildListByDevice(pk model.PublicKey, limit uint64) (string, []interface{}, error) {
	return squirrel.
		Select(reportColumns...).
		From(reportTable).
		Where(squirrel.Eq{"public_key": pk.String()}).
		OrderBy("report_timestamp DESC").
		Limit(normalizeLimit(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func buildListByOwner(owner model.AccountID, limit uint64) (string, []interface{}, error) {
	return squirrel.
		Select(reportColumns...).
		From(reportTable).
		Where(squirrel.Eq{"owner": owner.String()}).
		OrderBy("created_at DESC").
		Limit(normalizeLimit(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func normalizeLimit(limit uint64) uint64 {
	switch {
	case limit == 0:
		return 50
	case limit > 500:
		return 500
	default:
		return limit
	}
}
