// internal/service/distribution/infrastructure/mapper_test.go
package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promoflow/internal/service/distribution/domain"
)

func TestCouponModelMapping(t *testing.T) {
	assignTime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := &domain.Coupon{
		ID:         7,
		TemplateID: 3,
		UserID:     100,
		Code:       "ABC-123",
		Status:     domain.StatusUsed,
		AssignTime: assignTime,
		Template:   &domain.TemplateSDK{ID: 3},
	}

	model := fromDomainCoupon(c)
	require.NotNil(t, model)
	assert.Equal(t, int64(7), model.ID)
	assert.Equal(t, "ABC-123", model.CouponCode)
	assert.Equal(t, int(domain.StatusUsed), model.Status)

	back := toDomainCoupon(model)
	require.NotNil(t, back)
	assert.Equal(t, c.ID, back.ID)
	assert.Equal(t, c.TemplateID, back.TemplateID)
	assert.Equal(t, c.UserID, back.UserID)
	assert.Equal(t, c.Code, back.Code)
	assert.Equal(t, c.Status, back.Status)
	assert.Equal(t, c.AssignTime, back.AssignTime)
	// 模板快照不落库
	assert.Nil(t, back.Template)
}

func TestMapperHandlesNil(t *testing.T) {
	assert.Nil(t, toDomainCoupon(nil))
	assert.Nil(t, fromDomainCoupon(nil))
}
