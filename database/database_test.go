package database

import (
	"fmt"
	"testing"

	"growledger-go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryURL() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

func TestSeedPlansOnlyOnce(t *testing.T) {
	db, err := Initialize(memoryURL(), nil)
	require.NoError(t, err)

	n, err := SeedPlans(db)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = SeedPlans(db)
	require.NoError(t, err)
	assert.Zero(t, n)

	var plans []models.Plan
	require.NoError(t, db.Order("name").Find(&plans).Error)
	require.Len(t, plans, 4)
	assert.Equal(t, "NIFTY50", plans[0].Ticker)
	assert.Equal(t, "10000", plans[2].MinAmount.String())
}

func TestAdminLogIsAppendOnly(t *testing.T) {
	db, err := Initialize(memoryURL(), nil)
	require.NoError(t, err)

	entry := models.AdminLog{AdminID: "a1", Action: "Broadcast", TargetID: "All"}
	require.NoError(t, db.Create(&entry).Error)

	err = db.Model(&entry).Update("details", "rewritten").Error
	assert.ErrorIs(t, err, models.ErrImmutableLog)

	err = db.Delete(&entry).Error
	assert.ErrorIs(t, err, models.ErrImmutableLog)
}
