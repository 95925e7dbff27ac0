package formfill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/notefill/internal/browser/page"
	"github.com/xkilldash9x/notefill/internal/browser/page/pagetest"
	"github.com/xkilldash9x/notefill/internal/domain"
)

var applicant = domain.Identity{
	ID:       "id-1",
	Name:     "张三",
	IDType:   "身份证",
	IDNumber: "110101199001011234",
	Phone:    "13900000000",
}

func abc() domain.BankProfile { return domain.DefaultBankProfiles()[domain.BankABC] }

func TestFillBasicFields_AllSucceed(t *testing.T) {
	fake := pagetest.New("")
	inputs := fake.AddInputs(page.TextInputSelector, 10)

	rep := New(zaptest.NewLogger(t)).FillBasicFields(context.Background(), fake, applicant, 20, abc())

	assert.True(t, rep.OK())
	assert.Equal(t, "张三", inputs[0].Value)
	assert.Equal(t, "110101199001011234", inputs[1].Value)
	assert.Equal(t, "13900000000", inputs[2].Value)
	assert.Equal(t, "20", inputs[7].Value)
	assert.Equal(t, "", inputs[3].Value)
	assert.Len(t, rep.Logs, 4)
}

func TestFillBasicFields_FaultIsolated(t *testing.T) {
	fake := pagetest.New("")
	inputs := fake.AddInputs(page.TextInputSelector, 10)
	inputs[2].Stuck = true

	rep := New(zaptest.NewLogger(t)).FillBasicFields(context.Background(), fake, applicant, 20, abc())

	assert.False(t, rep.OK())
	for _, field := range []string{domain.FieldName, domain.FieldIDNumber, domain.FieldQuantity} {
		o, ok := rep.Outcome(field)
		require.True(t, ok)
		assert.True(t, o.OK, field)
	}

	phone, ok := rep.Outcome(domain.FieldPhone)
	require.True(t, ok)
	assert.False(t, phone.OK)
	assert.Equal(t, 2, phone.Index)
	var ffe *domain.FieldFillError
	require.True(t, errors.As(phone.Err, &ffe))
	assert.Contains(t, ffe.Reason, "did not stick")

	require.Len(t, rep.Failed(), 1)
	assert.Equal(t, "20", inputs[7].Value, "fields after the fault are still attempted")
}

func TestFillBasicFields_ErroringInput(t *testing.T) {
	fake := pagetest.New("")
	inputs := fake.AddInputs(page.TextInputSelector, 8)
	inputs[1].Err = errors.New("detached node")

	rep := New(zaptest.NewLogger(t)).FillBasicFields(context.Background(), fake, applicant, 5, abc())

	id, _ := rep.Outcome(domain.FieldIDNumber)
	assert.False(t, id.OK)
	assert.Len(t, rep.Failed(), 1)
	assert.Equal(t, "5", inputs[7].Value)
}

func TestFillBasicFields_MissingInputs(t *testing.T) {
	fake := pagetest.New("")
	fake.AddInputs(page.TextInputSelector, 3)

	rep := New(zaptest.NewLogger(t)).FillBasicFields(context.Background(), fake, applicant, 20, abc())

	qty, ok := rep.Outcome(domain.FieldQuantity)
	require.True(t, ok)
	assert.False(t, qty.OK)
	assert.Contains(t, qty.Err.Error(), "input not found")
	assert.Len(t, rep.Failed(), 1)
}

func TestFillBasicFields_CustomIndices(t *testing.T) {
	fake := pagetest.New("")
	inputs := fake.AddInputs(page.TextInputSelector, 10)
	profile := abc().Merge(domain.BankProfile{FieldIndices: map[string]int{domain.FieldQuantity: 9}})

	rep := New(zaptest.NewLogger(t)).FillBasicFields(context.Background(), fake, applicant, 3, profile)
	require.True(t, rep.OK())
	assert.Equal(t, "3", inputs[9].Value)
	assert.Equal(t, "", inputs[7].Value)
}

func TestFillByDescriptors(t *testing.T) {
	fake := pagetest.New("")
	name := fake.AddElement(page.Descriptor{Attr: "placeholder", Needle: "姓名"}.Criteria().Selector, &pagetest.Element{})
	id := fake.AddElement(page.Descriptor{Attr: "name", Needle: "id"}.Criteria().Selector, &pagetest.Element{})
	phone := fake.AddElement(page.Descriptor{Attr: "placeholder", Needle: "手机"}.Criteria().Selector, &pagetest.Element{})
	fake.AddNativeSelect("select", "身份证", "护照")

	rep := New(zaptest.NewLogger(t)).FillByDescriptors(context.Background(), fake, applicant, 20)

	assert.Equal(t, "张三", name.Value)
	assert.Equal(t, "110101199001011234", id.Value)
	assert.Equal(t, "13900000000", phone.Value)

	qty, ok := rep.Outcome(domain.FieldQuantity)
	require.True(t, ok)
	assert.False(t, qty.OK)
	assert.Contains(t, qty.Err.Error(), "no input matched")
	assert.Len(t, rep.Failed(), 1)

	assert.Contains(t, fake.Events(), "native:select=身份证")
	assert.Contains(t, rep.Logs, "✅ id_type: 身份证")
}

func TestReport(t *testing.T) {
	assert.False(t, Report{}.OK(), "an empty report is not a success")
	_, ok := Report{}.Outcome(domain.FieldName)
	assert.False(t, ok)
}
