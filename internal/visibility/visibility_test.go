package visibility

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alamesa/catalog-cli/internal/model"
	"github.com/alamesa/catalog-cli/internal/store"
	"github.com/alamesa/catalog-cli/pkg/vtex"
)

// The fixture catalog:
//
//	SKU 1: visible end to end
//	SKU 2: no images
//	SKU 3: SKU inactive
//	SKU 4: price record with zero base price
//	SKU 5: all warehouses drained
//	SKU 9: does not exist
func catalogHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	skus := map[string]map[string]any{
		"1": {"Id": 1, "IsActive": true, "IsProductActive": true,
			"Images": []map[string]any{{"ImageUrl": "https://img.test/1.jpg"}}},
		"2": {"Id": 2, "IsActive": true, "IsProductActive": true},
		"3": {"Id": 3, "IsActive": false, "IsProductActive": true,
			"Images": []map[string]any{{"ImageUrl": "https://img.test/3.jpg"}}},
		"4": {"Id": 4, "IsActive": true, "IsProductActive": true,
			"Images": []map[string]any{{"ImageUrl": "https://img.test/4.jpg"}}},
		"5": {"Id": 5, "IsActive": true, "IsProductActive": true,
			"Images": []map[string]any{{"ImageUrl": "https://img.test/5.jpg"}}},
	}
	mux.HandleFunc("/api/catalog_system/pvt/sku/stockkeepingunitbyid/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/catalog_system/pvt/sku/stockkeepingunitbyid/")
		sku, ok := skus[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(sku)
	})

	mux.HandleFunc("/api/catalog_system/pvt/sku/stockkeepingunitbyean/", func(w http.ResponseWriter, r *http.Request) {
		ean := strings.TrimPrefix(r.URL.Path, "/api/catalog_system/pvt/sku/stockkeepingunitbyean/")
		if ean == "7791234567890" {
			json.NewEncoder(w).Encode(map[string]any{"Id": 1})
			return
		}
		http.NotFound(w, r)
	})

	return mux
}

func commerceHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/pricing/prices/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/pricing/prices/")
		switch id {
		case "4":
			json.NewEncoder(w).Encode(map[string]any{"itemId": id, "basePrice": 0.0})
		case "1", "5":
			json.NewEncoder(w).Encode(map[string]any{"itemId": id, "basePrice": 999.5})
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/api/logistics/pvt/inventory/skus/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/logistics/pvt/inventory/skus/")
		switch id {
		case "1":
			json.NewEncoder(w).Encode(map[string]any{
				"skuId":   id,
				"balance": []map[string]any{{"totalQuantity": 10, "reservedQuantity": 2}},
			})
		case "5":
			json.NewEncoder(w).Encode(map[string]any{
				"skuId":   id,
				"balance": []map[string]any{{"totalQuantity": 4, "reservedQuantity": 4}},
			})
		default:
			http.NotFound(w, r)
		}
	})

	return mux
}

func testClient(t *testing.T, handler http.Handler) *vtex.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return vtex.New("test", "k", "t", vtex.Config{
		BaseURL:    srv.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryWait:  time.Millisecond,
	})
}

func newCheckEnv(t *testing.T) (*Checker, store.Store, string, string) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	task, err := st.CreateTask(context.Background(), model.TaskKindVisibility, "test")
	require.NoError(t, err)

	outDir := t.TempDir()
	chk := NewChecker(
		testClient(t, catalogHandler(t)),
		testClient(t, commerceHandler(t)),
		st, 5, outDir, "test",
	)
	return chk, st, task.ID, outDir
}

func TestChecker_RunSKUs_StagedReasons(t *testing.T) {
	chk, st, taskID, outDir := newCheckEnv(t)
	ctx := context.Background()

	results, err := chk.RunSKUs(ctx, taskID, []string{"1", "2", "3", "4", "5", "9"})
	require.NoError(t, err)
	require.Len(t, results, 6)

	assert.True(t, results[0].Visible)
	assert.Equal(t, "", results[0].Reason)
	require.NotNil(t, results[0].Price)
	assert.Equal(t, 999.5, *results[0].Price)
	require.NotNil(t, results[0].Stock)
	assert.Equal(t, 8, *results[0].Stock)

	assert.False(t, results[1].Visible)
	assert.Equal(t, "Sin imagenes", results[1].Reason)
	// Short-circuited before price: the pointer stages stay nil.
	assert.Nil(t, results[1].Price)
	assert.Nil(t, results[1].Stock)

	assert.Equal(t, "SKU no activo", results[2].Reason)
	assert.Equal(t, "Sin precio", results[3].Reason)

	assert.Equal(t, "Sin stock", results[4].Reason)
	require.NotNil(t, results[4].Stock)
	assert.Equal(t, 0, *results[4].Stock)

	assert.Equal(t, "Error al consultar catalogo", results[5].Reason)

	// One audit record per checked SKU; the failed catalog fetch gets none.
	checks, err := st.ListVisibilityChecks(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, checks, 5)
	for _, c := range checks {
		assert.NotEqual(t, "9", c.SKUID)
		assert.Equal(t, "test", c.Account)
	}

	task, err := st.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusComplete, task.Status)
	assert.Equal(t, 6, task.ProgressTotal)
	assert.Equal(t, 6, task.ProgressCurrent)
	require.NotEmpty(t, task.ResultFile)
	assert.True(t, strings.HasPrefix(task.ResultFile, "catalogacion"))
	_, err = os.Stat(filepath.Join(outDir, task.ResultFile))
	require.NoError(t, err)

	var logText strings.Builder
	for _, line := range task.Log {
		logText.WriteString(line.Message)
		logText.WriteString("\n")
	}
	assert.Contains(t, logText.String(), "SKUs a consultar: 6")
	assert.Contains(t, logText.String(), "SKU 1: VISIBLE")
	assert.Contains(t, logText.String(), "SKU 2: NO VISIBLE (Sin imagenes)")
	assert.Contains(t, logText.String(), "Consulta finalizada. 6 SKUs procesados.")
}

func TestChecker_RunEANs_ResolvesBarcodes(t *testing.T) {
	chk, st, taskID, _ := newCheckEnv(t)
	ctx := context.Background()

	results, err := chk.RunEANs(ctx, taskID, []string{"7791234567890", "0000000000000"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "7791234567890", results[0].EAN)
	assert.Equal(t, "1", results[0].SKUID)
	assert.True(t, results[0].Visible)

	assert.Equal(t, "0000000000000", results[1].EAN)
	assert.Equal(t, "", results[1].SKUID)
	assert.False(t, results[1].Visible)
	assert.Equal(t, "EAN no encontrado", results[1].Reason)

	// The unresolved barcode never reached the catalog: no audit record.
	checks, err := st.ListVisibilityChecks(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, "1", checks[0].SKUID)
	assert.Equal(t, "7791234567890", checks[0].EAN)

	task, err := st.GetTask(ctx, taskID)
	require.NoError(t, err)
	var logText strings.Builder
	for _, line := range task.Log {
		logText.WriteString(line.Message)
		logText.WriteString("\n")
	}
	assert.Contains(t, logText.String(), "EAN 7791234567890 -> SKU 1")
	assert.Contains(t, logText.String(), "EAN 0000000000000: NO ENCONTRADO")
}

func TestChecker_CheckSKU_PriceFetchError(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	brokenSeller := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	chk := NewChecker(
		testClient(t, catalogHandler(t)),
		testClient(t, brokenSeller),
		st, 1, t.TempDir(), "test",
	)

	res, audit := chk.checkSKU(context.Background(), "1")
	assert.True(t, audit)
	assert.False(t, res.Visible)
	assert.Equal(t, "Sin precio (error al consultar)", res.Reason)
	assert.Nil(t, res.Price)
}

func TestChecker_CheckSKU_NonNumericID(t *testing.T) {
	chk, _, _, _ := newCheckEnv(t)

	res, audit := chk.checkSKU(context.Background(), "abc")
	assert.False(t, audit)
	assert.Equal(t, "Error al consultar catalogo", res.Reason)
}
