package service

import (
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

// Authority 管理调用的角色校验
type Authority interface {
	IsRoot(who model.AccountID) bool
	IsBrandAuthority(who model.AccountID) bool
	IsProducerAuthority(who model.AccountID) bool
}

// StaticAuthority 由配置给定的角色名单
type StaticAuthority struct {
	root     map[model.AccountID]struct{}
	brand    map[model.AccountID]struct{}
	producer map[model.AccountID]struct{}
}

// NewStaticAuthority 解析配置中的账户名单
func NewStaticAuthority(cfg *Config) (*StaticAuthority, error) {
	a := &StaticAuthority{}
	var err error
	if a.root, err = parseAccounts(cfg.RootAccounts); err != nil {
		return nil, errors.Wrap(err, "root_accounts")
	}
	if a.brand, err = parseAccounts(cfg.BrandAuthorities); err != nil {
		return nil, errors.Wrap(err, "brand_authorities")
	}
	if a.producer, err = parseAccounts(cfg.ProducerAuthorities); err != nil {
		return nil, errors.Wrap(err, "producer_authorities")
	}
	return a, nil
}

func (a *StaticAuthority) IsRoot(who model.AccountID) bool {
	_, ok := a.root[who]
	return ok
}

func (a *StaticAuthority) IsBrandAuthority(who model.AccountID) bool {
	_, ok := a.brand[who]
	return ok
}

func (a *StaticAuthority) IsProducerAuthority(who model.AccountID) bool {
	_, ok := a.producer[who]
	return ok
}

func parseAccounts(list []string) (map[model.AccountID]struct{}, error) {
	out := make(map[model.AccountID]struct{}, len(list))
	for _, s := range list {
		id, err := model.ParseAccountID(s)
		if err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, nil
}

func requireRole(ok bool, role string) error {
	if !ok {
		return errors.Wrapf(vfeerr.ErrRoleInvalid, "caller is not %s", role)
	}
	return nil
}
