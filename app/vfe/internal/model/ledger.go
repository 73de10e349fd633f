package model

// BalanceKey 同质化资产余额键
type BalanceKey struct {
	Asset   AssetID   `json:"asset"`
	Account AccountID `json:"account"`
}

// EscrowID 托管子账户，由模块标识和生产商派生，不对外开放转账
type EscrowID struct {
	Pallet   string     `json:"pallet"`
	Producer ProducerID `json:"producer"`
}

// EscrowKey 托管余额键
type EscrowKey struct {
	Asset  AssetID  `json:"asset"`
	Escrow EscrowID `json:"escrow"`
}
