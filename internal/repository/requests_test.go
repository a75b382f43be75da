package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
)

func TestSwapAffected_OriginFirst(t *testing.T) {
	lower := &models.Shift{ID: 100, StoreID: 1, UserID: 20}
	higher := &models.Shift{ID: 200, StoreID: 1, UserID: 10}

	// Блокировки берутся по возрастанию ID, но наружу исходная смена
	// заявки идет первой независимо от того, какой ID меньше
	got := swapAffected(200, lower, higher)
	assert.Equal(t, int64(200), got[0].ID)
	assert.Equal(t, int64(100), got[1].ID)

	got = swapAffected(100, lower, higher)
	assert.Equal(t, int64(100), got[0].ID)
	assert.Equal(t, int64(200), got[1].ID)
}
