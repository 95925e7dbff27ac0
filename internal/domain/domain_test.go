package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity(t *testing.T) {
	a, err := NewIdentity(" 张三 ", "", "110101199001011234", "13900000000")
	require.NoError(t, err)
	b, err := NewIdentity("张三", "", "110101199001011234", "13900000000")
	require.NoError(t, err)

	assert.Equal(t, "张三", a.Name)
	assert.Equal(t, DefaultIDType, a.IDType)
	assert.NotEqual(t, a.ID, b.ID, "identical data still gets distinct ids")

	_, err = NewIdentity("", "", "1", "2")
	assert.Error(t, err)
}

func TestIdentityEditKeepsID(t *testing.T) {
	id, err := NewIdentity("张三", "身份证", "110", "139")
	require.NoError(t, err)

	edited, err := id.Edit("", "护照", "", "138")
	require.NoError(t, err)
	assert.Equal(t, id.ID, edited.ID)
	assert.Equal(t, "张三", edited.Name)
	assert.Equal(t, "护照", edited.IDType)
	assert.Equal(t, "138", edited.Phone)
}

func TestIdentityWithID(t *testing.T) {
	loaded := Identity{Name: "李四", IDNumber: "1", Phone: "2"}.WithID()
	assert.NotEmpty(t, loaded.ID)
	assert.Equal(t, DefaultIDType, loaded.IDType)
	assert.Equal(t, loaded.ID, loaded.WithID().ID)
}

func TestCascadePath(t *testing.T) {
	spec, err := NewCascadePath("北京市", " ", "朝阳区", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"北京市", "朝阳区"}, spec.CascadePath)
	assert.Equal(t, "朝阳区", spec.Name())
	assert.Equal(t, "北京市 → 朝阳区", spec.String())

	_, err = NewCascadePath("", "")
	assert.Error(t, err)

	_, err = NewCascadePath("a", "b", "c", "d", "e")
	assert.Error(t, err)
}

func TestIndependentFields(t *testing.T) {
	spec, err := NewIndependentFields(IndependentFields{Province: "北京市", District: "朝阳区", Outlet: " 朝阳支行 "})
	require.NoError(t, err)
	assert.Equal(t, "朝阳支行", spec.Name())
	assert.Equal(t, "北京市 - 朝阳区 - 朝阳支行", spec.String())

	spec, err = NewIndependentFields(IndependentFields{Province: "北京市", District: "海淀区"})
	require.NoError(t, err, "an outlet is not required")
	assert.Equal(t, "海淀区", spec.Name())
	assert.Equal(t, "北京市 - 海淀区", spec.String())

	_, err = NewIndependentFields(IndependentFields{City: "  "})
	assert.Error(t, err, "at least one field is required")

	assert.Equal(t, "未配置网点", LocationSpec{}.String())
}

func TestDefaultBankProfiles(t *testing.T) {
	profiles := DefaultBankProfiles()
	abc := profiles[BankABC]
	icbc := profiles[BankICBC]

	require.NoError(t, abc.Validate())
	require.NoError(t, icbc.Validate())
	assert.Equal(t, LocationCascade, abc.LocationKind())
	assert.Equal(t, LocationIndependent, icbc.LocationKind())

	for i, f := range IndependentOrder {
		idx, ok := icbc.Index(string(f))
		require.True(t, ok)
		assert.Equal(t, 3+i, idx)
	}
	qty, _ := abc.Index(FieldQuantity)
	assert.Equal(t, 7, qty)
}

func TestBankProfileMerge(t *testing.T) {
	base := DefaultBankProfiles()[BankABC]
	merged := base.Merge(BankProfile{FieldIndices: map[string]int{FieldPhone: 4}})

	assert.Equal(t, 4, merged.FieldIndices[FieldPhone])
	assert.Equal(t, 0, merged.FieldIndices[FieldName])
	assert.True(t, merged.UsesCascadingSelector)
	assert.Equal(t, DefaultCascadeOffset, merged.CascadeOffset)
	assert.Equal(t, 2, base.FieldIndices[FieldPhone], "merge does not mutate the receiver")
}

func TestSessionStateAttached(t *testing.T) {
	attached := map[SessionState]bool{
		StateDisconnected: false,
		StateConnecting:   false,
		StateConnected:    true,
		StateFilling:      true,
		StateDone:         true,
		StateFailed:       false,
	}
	for s, want := range attached {
		assert.Equal(t, want, s.Attached(), s.String())
		assert.NotEqual(t, "?", s.Badge())
	}
}

func TestConnectErrorIs(t *testing.T) {
	err := fmt.Errorf("identity 0: %w", &ConnectError{Kind: NoOpenPage, Endpoint: "http://localhost:9222"})

	assert.True(t, errors.Is(err, &ConnectError{Kind: NoOpenPage}))
	assert.False(t, errors.Is(err, &ConnectError{Kind: NoOpenContext}))

	var ce *ConnectError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "http://localhost:9222", ce.Endpoint)
	assert.Contains(t, err.Error(), "no open page")
}

func TestFieldErrors(t *testing.T) {
	assert.Equal(t, "field phone (input #2): value did not stick",
		(&FieldFillError{Field: FieldPhone, Index: 2, Reason: "value did not stick"}).Error())
	assert.Equal(t, `level 2: option "朝阳区" not found`,
		(&OptionNotFoundError{Level: 1, Label: "朝阳区"}).Error())
	assert.Equal(t, `city: option "北京市" not found`,
		(&OptionNotFoundError{Level: -1, Field: "city", Label: "北京市"}).Error())
}
