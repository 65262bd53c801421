package catalog_test

import (
	"testing"

	"github.com/jrsteele09/storefront-client/catalog"
	"github.com/stretchr/testify/require"
)

func TestPlans_Lookup(t *testing.T) {
	plans := catalog.Plans{
		{ID: "p1", Title: "Lean"},
		{ID: "p2", Title: "Bulk"},
	}
	require.Equal(t, "Bulk", plans.Label("p2"))
	require.Equal(t, "", plans.Label("missing"))
	require.Nil(t, plans.Find("missing"))

	require.Equal(t, "p2", plans.Effective("p2"))
	require.Equal(t, "p1", plans.Effective(""))
	require.Equal(t, "p1", plans.Effective(catalog.DefaultPlanID))
	require.Equal(t, "", catalog.Plans{}.Effective("default"))
	require.Equal(t, "custom", catalog.Plans{}.Effective("custom"))
}

func TestFallback(t *testing.T) {
	require.Equal(t, "default", catalog.Fallback("")[0].ID)
	require.Equal(t, "tmpl-1", catalog.Fallback("tmpl-1")[0].ID)
	require.Equal(t, "Signature Program", catalog.Fallback("tmpl-1").Label("tmpl-1"))
}
