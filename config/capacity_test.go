package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/crdterr"
)

func TestDefaultValidates(t *testing.T) {
	assert.Nilf(t, Default().Validate(), "Default() should validate")
}

func TestValidateRejectsNonPositiveSizes(t *testing.T) {
	cases := []Capacity{
		{MaxNodes: 0, MaxElements: 8},
		{MaxNodes: -1, MaxElements: 8},
		{MaxNodes: 4, MaxElements: 0},
		{MaxNodes: 4, MaxElements: -3},
	}

	for _, c := range cases {
		assert.Errorf(t, c.Validate(), "expected error validating %+v", c)
	}
}

func TestValidateRejectsBudgetOverrun(t *testing.T) {
	c := Capacity{MaxNodes: 16, MaxElements: 64, TotalMemoryBudget: 1}

	err := c.Validate()
	assert.Error(t, err, "expected a tiny budget to be rejected")

	var ce *crdterr.Error
	assert.ErrorAsf(t, err, &ce, "expected a *crdterr.Error, got %v", err)
	assert.Equal(t, crdterr.CapacityExceeded, ce.Kind)
}

func TestEstimateMemoryUsageGrowsWithSize(t *testing.T) {
	small := Capacity{MaxNodes: 4, MaxElements: 8}
	large := Capacity{MaxNodes: 64, MaxElements: 512}

	assert.Less(t, small.EstimateMemoryUsage(), large.EstimateMemoryUsage(),
		"a larger configuration should estimate a larger footprint")
}

func TestValidateNodeID(t *testing.T) {
	c := Capacity{MaxNodes: 4, MaxElements: 8}

	assert.Nilf(t, c.ValidateNodeID("test", clock.NodeID(3)), "node id 3 should be valid under MaxNodes=4")

	err := c.ValidateNodeID("test", clock.NodeID(4))
	assert.Error(t, err, "node id 4 should be invalid under MaxNodes=4")

	var ce *crdterr.Error
	assert.ErrorAsf(t, err, &ce, "expected a *crdterr.Error, got %v", err)
	assert.Equal(t, crdterr.InvalidNodeID, ce.Kind)
}
