package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/crypto"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// ReportRequest 设备上传的训练报告
type ReportRequest struct {
	PublicKey model.PublicKey
	Signature []byte
	Report    []byte
}

// ReportResult 报告结算结果
type ReportResult struct {
	Owner     model.AccountID `json:"owner"`
	Brand     model.BrandID   `json:"brand"`
	Item      model.ItemID    `json:"item"`
	PowerUsed uint16          `json:"power_used"`
	Volume    uint64          `json:"volume"`
	Reward    model.Balance   `json:"reward"`
}

// ReportService 训练报告结算
type ReportService struct {
	*deps
	logger logger.Logger
}

// NewReportService 创建报告服务
func NewReportService(d *deps, l logger.Logger) *ReportService {
	return &ReportService{
		deps:   d,
		logger: l.Named("service.report"),
	}
}

// SubmitReport 校验报告并发放奖励
func (s *ReportService) SubmitReport(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	var res *ReportResult
	err := s.exec.Execute(ctx, "submit_report", func(tx *executor.Tx) error {
		var err error
		res, err = s.settle(tx, req)
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "report rejected",
			"device", req.PublicKey.String(),
			"error", err,
		)
		return nil, err
	}
	s.metrics.RecordReward(uint64(res.Reward))
	s.logger.InfoContext(ctx, "training rewarded",
		"device", req.PublicKey.String(),
		"owner", res.Owner.String(),
		"power_used", res.PowerUsed,
		"reward", uint64(res.Reward),
	)
	return res, nil
}

// ValidateReport 与 SubmitReport 相同的检查，不提交
func (s *ReportService) ValidateReport(ctx context.Context, req ReportRequest) error {
	return s.exec.Simulate(ctx, "validate_report", func(tx *executor.Tx) error {
		_, err := s.settle(tx, req)
		return err
	})
}

func (s *ReportService) settle(tx *executor.Tx, req ReportRequest) (*ReportResult, error) {
	st := tx.Store
	dev, err := s.device(st, req.PublicKey)
	if err != nil {
		return nil, err
	}
	if dev.Status == model.DeviceVoided {
		return nil, errors.Wrapf(vfeerr.ErrDeviceVoided, "device %s", req.PublicKey)
	}
	if dev.Item == nil {
		return nil, errors.Wrapf(vfeerr.ErrDeviceNotBound, "device %s", req.PublicKey)
	}
	if ok, err := crypto.VerifyP256(req.PublicKey.Bytes(), req.Report, req.Signature); err != nil || !ok {
		return nil, errors.Wrapf(vfeerr.ErrSignatureInvalid, "report from %s", req.PublicKey)
	}

	report, err := model.DecodeTrainingReport(req.Report)
	if err != nil {
		return nil, err
	}
	if report.Timestamp <= dev.LastReportTimestamp {
		return nil, errors.Wrapf(vfeerr.ErrTimestampNotIncreasing, "timestamp %d, last %d", report.Timestamp, dev.LastReportTimestamp)
	}
	if err := s.checkWindow(tx.Now, report.Timestamp); err != nil {
		return nil, err
	}

	key := model.ItemKey{Brand: dev.Brand, Item: *dev.Item}
	item, ok := st.Items.Get(key)
	if !ok {
		return nil, errors.Wrapf(vfeerr.ErrItemNotFound, "item %d/%d", key.Brand, key.Item)
	}
	owner, ok := s.ledger.OwnerOf(st, key)
	if !ok {
		return nil, errors.Wrapf(vfeerr.ErrItemNotFound, "item %d/%d has no owner", key.Brand, key.Item)
	}
	acc, err := s.ensureAccount(tx, owner)
	if err != nil {
		return nil, err
	}

	if acc.Energy == 0 {
		return nil, vfeerr.ErrEnergyExhausted
	}
	if acc.Earned >= acc.EarningCap {
		return nil, errors.Wrapf(vfeerr.ErrEarnedCap, "earned %d, cap %d", acc.Earned, acc.EarningCap)
	}
	if item.RemainingBattery == 0 {
		return nil, errors.Wrapf(vfeerr.ErrLowBattery, "item %d/%d", key.Brand, key.Item)
	}
	powerUsed := min(acc.Energy, item.RemainingBattery, report.CountedDurationSeconds/dev.SportType.TrainingUnitDuration())
	if powerUsed == 0 {
		return nil, errors.Wrapf(vfeerr.ErrInsufficientTraining, "counted %ds", report.CountedDurationSeconds)
	}

	volume, err := s.trainingVolume(st, dev.SportType, item.Current, report, powerUsed)
	if err != nil {
		return nil, err
	}
	reward, err := model.Balance(volume).CheckedMul(s.cfg.costUnit())
	if err != nil {
		return nil, errors.Wrapf(err, "reward for volume %d", volume)
	}
	if room := acc.EarningCap - acc.Earned; reward > room {
		reward = room
	}

	asset, err := s.incentiveToken(st)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Mint(st, asset, owner, reward); err != nil {
		return nil, err
	}

	acc.Energy -= powerUsed
	acc.Earned += reward
	item.RemainingBattery -= powerUsed
	dev.LastReportTimestamp = report.Timestamp
	st.Accounts.Set(owner, acc)
	st.Items.Set(key, item)
	st.Devices.Set(req.PublicKey, dev)

	tx.Emit(model.EventTrainingRewarded, model.TrainingRewarded{
		PublicKey: req.PublicKey,
		Brand:     key.Brand,
		Item:      key.Item,
		Owner:     owner,
		PowerUsed: powerUsed,
		Volume:    volume,
		Reward:    reward,
		Report:    report,
	})
	return &ReportResult{
		Owner:     owner,
		Brand:     key.Brand,
		Item:      key.Item,
		PowerUsed: powerUsed,
		Volume:    volume,
		Reward:    reward,
	}, nil
}

// checkWindow now − window ≤ ts ≤ now
func (s *ReportService) checkWindow(now time.Time, ts uint32) error {
	at := time.Unix(int64(ts), 0)
	if at.After(now) || at.Before(now.Add(-s.cfg.ReportValidityWindow)) {
		return errors.Wrapf(vfeerr.ErrReportExpired, "timestamp %d, now %d", ts, now.Unix())
	}
	return nil
}

// trainingVolume (efficiency + skill' + 2×luck') × powerUsed × f
//
// luck' = rand(luck) + 1，skill' 由 skill 随机游走到 skill × maxCount / ((interruptions+1) × 标准频率)。
func (s *ReportService) trainingVolume(st *state.Store, sport model.SportType, ab model.Ability, r model.TrainingReport, powerUsed uint16) (uint64, error) {
	f := sport.FrequencyFactor(r.AvgSpeed)
	if f == 0 {
		return 0, errors.Wrapf(vfeerr.ErrTrainingReportOutOfNormalRange, "avg speed %d", r.AvgSpeed)
	}

	luck := uint64(s.sampler.Intn(st, uint32(ab.Luck))) + 1
	skill := uint64(ab.Skill)
	target := skill * uint64(r.MaxCount) / ((uint64(r.Interruptions) + 1) * uint64(sport.FrequencyStandard()))
	if skill > target {
		skill -= uint64(s.sampler.Intn(st, uint32(skill-target)))
	} else {
		skill += uint64(s.sampler.Intn(st, uint32(target-skill)))
	}

	return (uint64(ab.Efficiency) + skill + 2*luck) * uint64(powerUsed) * f, nil
}
