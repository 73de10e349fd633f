package model

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

// TrainingReportSize 训练报告定长字节数
const TrainingReportSize = 17

// TrainingReport 设备签名的训练报告，小端序定长布局
type TrainingReport struct {
	Timestamp              uint32 `json:"timestamp"`
	DurationSeconds        uint16 `json:"duration_seconds"`
	TotalCount             uint16 `json:"total_count"`
	AvgSpeed               uint16 `json:"avg_speed"`
	MaxSpeed               uint16 `json:"max_speed"`
	MaxCount               uint16 `json:"max_count"`
	Interruptions          uint8  `json:"interruptions"`
	CountedDurationSeconds uint16 `json:"counted_duration_seconds"`
}

// DecodeTrainingReport 解码训练报告，长度不为 17 返回 ErrValueInvalid
func DecodeTrainingReport(raw []byte) (TrainingReport, error) {
	if len(raw) != TrainingReportSize {
		return TrainingReport{}, errors.Wrapf(vfeerr.ErrValueInvalid, "report length %d", len(raw))
	}
	le := binary.LittleEndian
	return TrainingReport{
		Timestamp:              le.Uint32(raw[0:4]),
		DurationSeconds:        le.Uint16(raw[4:6]),
		TotalCount:             le.Uint16(raw[6:8]),
		AvgSpeed:               le.Uint16(raw[8:10]),
		MaxSpeed:               le.Uint16(raw[10:12]),
		MaxCount:               le.Uint16(raw[12:14]),
		Interruptions:          raw[14],
		CountedDurationSeconds: le.Uint16(raw[15:17]),
	}, nil
}

// Encode 编码为 17 字节
func (r TrainingReport) Encode() []byte {
	raw := make([]byte, TrainingReportSize)
	le := binary.LittleEndian
	le.PutUint32(raw[0:4], r.Timestamp)
	le.PutUint16(raw[4:6], r.DurationSeconds)
	le.PutUint16(raw[6:8], r.TotalCount)
	le.PutUint16(raw[8:10], r.AvgSpeed)
	le.PutUint16(raw[10:12], r.MaxSpeed)
	le.PutUint16(raw[12:14], r.MaxCount)
	raw[14] = r.Interruptions
	le.PutUint16(raw[15:17], r.CountedDurationSeconds)
	return raw
}
