package model

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

func TestDecodeTrainingReport(t *testing.T) {
	raw := []byte{
		0x10, 0x27, 0x00, 0x00, // ts 10000
		0xb7, 0x00, // duration 183
		0x2c, 0x01, // total 300
		0x64, 0x00, // avg 100
		0x96, 0x00, // max speed 150
		0xc8, 0x00, // max count 200
		0x02,       // interruptions
		0xb4, 0x00, // counted 180
	}
	r, err := DecodeTrainingReport(raw)
	require.NoError(t, err)
	assert.Equal(t, TrainingReport{
		Timestamp:              10000,
		DurationSeconds:        183,
		TotalCount:             300,
		AvgSpeed:               100,
		MaxSpeed:               150,
		MaxCount:               200,
		Interruptions:          2,
		CountedDurationSeconds: 180,
	}, r)
	assert.Equal(t, raw, r.Encode())

	for _, n := range []int{0, 16, 18} {
		_, err := DecodeTrainingReport(make([]byte, n))
		assert.True(t, errors.Is(err, vfeerr.ErrValueInvalid), "length %d", n)
	}
}

func TestBalanceArithmetic(t *testing.T) {
	_, err := Balance(^uint64(0)).CheckedAdd(1)
	assert.True(t, errors.Is(err, vfeerr.ErrValueOverflow))

	_, err = Balance(1).CheckedSub(2)
	assert.True(t, errors.Is(err, vfeerr.ErrBalanceNotEnough))

	_, err = Balance(1 << 40).CheckedMul(1 << 40)
	assert.True(t, errors.Is(err, vfeerr.ErrValueOverflow))

	v, err := Balance(7).CheckedMul(6)
	require.NoError(t, err)
	assert.Equal(t, Balance(42), v)
	assert.Equal(t, Balance(0), Balance(3).SaturatingSub(5))
}

func TestSportConstants(t *testing.T) {
	tests := []struct {
		sport    SportType
		unit     uint16
		freq     uint16
		avgSpeed uint16
		factor   uint64
	}{
		{SportJumpRope, 30, 120, 79, 0},
		{SportJumpRope, 30, 120, 80, 1},
		{SportJumpRope, 30, 120, 400, 1},
		{SportJumpRope, 30, 120, 401, 0},
		{SportRun, 60, 10, 0, 1},
		{SportBicycle, 60, 30, 2000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.sport.String(), func(t *testing.T) {
			assert.Equal(t, tt.unit, tt.sport.TrainingUnitDuration())
			assert.Equal(t, tt.freq, tt.sport.FrequencyStandard())
			assert.Equal(t, tt.factor, tt.sport.FrequencyFactor(tt.avgSpeed))
		})
	}
}

func TestRarityRanges(t *testing.T) {
	want := map[Rarity][2]uint16{
		RarityCommon: {2, 8},
		RarityElite:  {6, 12},
		RarityRare:   {10, 18},
		RarityEpic:   {20, 30},
	}
	for r, rng := range want {
		min, max := r.AbilityRange()
		assert.Equal(t, rng, [2]uint16{min, max}, r.String())
		assert.Equal(t, uint16(4), r.GrowthPoints())
	}
}

func TestAbilityAdd(t *testing.T) {
	a := Ability{Efficiency: 1, Skill: 2, Luck: 3, Durable: 4}
	b, err := a.Add(Ability{Efficiency: 1, Durable: 2})
	require.NoError(t, err)
	assert.Equal(t, Ability{Efficiency: 2, Skill: 2, Luck: 3, Durable: 6}, b)
	assert.True(t, b.Covers(a))
	assert.Equal(t, uint32(13), b.Sum())

	_, err = a.Add(Ability{Luck: 0xFFFF})
	assert.True(t, errors.Is(err, vfeerr.ErrValueOverflow))
}

func TestTextEncoding(t *testing.T) {
	var acc AccountID
	acc[0], acc[31] = 0xab, 0x01
	data, err := json.Marshal(struct {
		Account AccountID `json:"account"`
		Sport   SportType `json:"sport"`
	}{acc, SportBicycle})
	require.NoError(t, err)
	assert.JSONEq(t, `{"account":"ab00000000000000000000000000000000000000000000000000000000000001","sport":"bicycle"}`, string(data))

	parsed, err := ParseAccountID("0x" + acc.String())
	require.NoError(t, err)
	assert.Equal(t, acc, parsed)

	_, err = ParseAccountID("abcd")
	assert.True(t, errors.Is(err, vfeerr.ErrValueInvalid))

	_, err = ParsePublicKey("zz")
	assert.True(t, errors.Is(err, vfeerr.ErrPublicKeyInvalid))

	r, err := ParseRarity("EPIC")
	require.NoError(t, err)
	assert.Equal(t, RarityEpic, r)
}
