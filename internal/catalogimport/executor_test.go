package catalogimport

import (
	"context"
	"fmt"
	"testing"

	"sipndash/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_CreatesProductsAndCategories(t *testing.T) {
	db := newMemDB()
	ex := newTestExecutor(db, DefaultPolicy())

	out := ex.Execute(context.Background(), model.CatalogDrinks, []Row{
		row(2, "Tusker", "Beer", "250"),
		row(3, "Guinness", "Beer", "300"),
		row(4, "Jameson", "Whiskey", "3,500.00"),
	})

	assert.Equal(t, 3, out.Created)
	assert.Equal(t, 0, out.Updated)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Empty(t, out.Errors)
	assert.Len(t, db.categories, 2)

	p := db.products[key(model.CatalogDrinks, "Jameson")]
	assert.True(t, p.Price.Equal(decimal.NewFromInt(3500)))
	assert.Equal(t, model.DefaultStock, p.Stock)
	assert.True(t, p.Active)
}

func TestExecute_MatchingNameUpdatesAndRecordsPriceChange(t *testing.T) {
	db := newMemDB()
	ex := newTestExecutor(db, DefaultPolicy())
	ctx := context.Background()

	ex.Execute(ctx, model.CatalogDrinks, []Row{row(2, "Tusker", "Beer", "250")})
	out := ex.Execute(ctx, model.CatalogDrinks, []Row{
		row(2, "Tusker", "Lager", "275"),
	})

	assert.Equal(t, 0, out.Created)
	assert.Equal(t, 1, out.Updated)
	assert.Len(t, db.products, 1)

	p := db.products[key(model.CatalogDrinks, "Tusker")]
	lager := db.categories[key(model.CatalogDrinks, "Lager")]
	assert.Equal(t, lager.ID, p.CategoryID)

	require.Len(t, db.history, 1)
	assert.True(t, db.history[0].PriceBefore.Equal(decimal.NewFromInt(250)))
	assert.True(t, db.history[0].PriceAfter.Equal(decimal.NewFromInt(275)))
	assert.Equal(t, model.PriceSourceImport, db.history[0].Source)
}

func TestExecute_SamePriceRecordsNoHistory(t *testing.T) {
	db := newMemDB()
	ex := newTestExecutor(db, DefaultPolicy())
	ctx := context.Background()

	ex.Execute(ctx, model.CatalogDrinks, []Row{row(2, "Tusker", "Beer", "250")})
	out := ex.Execute(ctx, model.CatalogDrinks, []Row{row(2, "Tusker", "Beer", "250.00")})

	assert.Equal(t, 1, out.Updated)
	assert.Empty(t, db.history)
}

func TestExecute_CatalogsAreIndependent(t *testing.T) {
	db := newMemDB()
	ex := newTestExecutor(db, DefaultPolicy())
	ctx := context.Background()

	ex.Execute(ctx, model.CatalogDrinks, []Row{row(2, "Mojito", "Classics", "800")})
	out := ex.Execute(ctx, model.CatalogCocktails, []Row{row(2, "Mojito", "Classics", "900")})

	assert.Equal(t, 1, out.Created)
	assert.Len(t, db.products, 2)
	assert.Len(t, db.categories, 2)
}

func TestExecute_RowErrorsDoNotStopTheBatch(t *testing.T) {
	db := newMemDB()
	ex := newTestExecutor(db, DefaultPolicy())

	out := ex.Execute(context.Background(), model.CatalogDrinks, []Row{
		row(2, "Tusker", "Beer", "250"),
		row(3, "   ", "Beer", "100"),
		row(4, "Pilsner", "Beer", "cheap"),
		row(5, "Guinness", "Beer", "-40"),
	})

	assert.Equal(t, 2, out.Created)
	assert.Equal(t, 2, out.ErrorCount)
	assert.Equal(t, StatusPartialSuccess, out.Status)
	require.Len(t, out.Errors, 2)
	assert.Contains(t, out.Errors[0], "row 3")
	assert.Contains(t, out.Errors[1], "row 4")

	g := db.products[key(model.CatalogDrinks, "Guinness")]
	assert.True(t, g.Price.IsZero())
}

func TestExecute_InactiveCategoryIsRowError(t *testing.T) {
	db := newMemDB()
	ex := newTestExecutor(db, DefaultPolicy())
	cat := model.Category{Catalog: model.CatalogDrinks, Name: "Ciders", Active: false}
	db.categories[key(model.CatalogDrinks, "Ciders")] = cat

	out := ex.Execute(context.Background(), model.CatalogDrinks, []Row{
		row(2, "Savanna", "Ciders", "300"),
	})

	assert.Equal(t, 0, out.Created)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "inactive")
	assert.Empty(t, db.products)
}

func TestExecute_StorageFailureRollsBackOnlyItsBatch(t *testing.T) {
	db := newMemDB()
	db.failProduct = "Broken"
	p := DefaultPolicy()
	p.BatchSize = 2
	ex := newTestExecutor(db, p)

	out := ex.Execute(context.Background(), model.CatalogDrinks, []Row{
		row(2, "A", "Beer", "1"),
		row(3, "B", "Beer", "1"),
		row(4, "C", "Wine", "1"),
		row(5, "Broken", "Wine", "1"),
		row(6, "E", "Beer", "1"),
	})

	assert.Equal(t, 3, out.Created)
	assert.Equal(t, StatusPartialSuccess, out.Status)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "rows 4-5: batch rolled back")
	assert.Contains(t, out.Errors[0], errDisk.Error())

	_, keptC := db.products[key(model.CatalogDrinks, "C")]
	assert.False(t, keptC, "rows of the failed batch must not persist")
	_, keptWine := db.categories[key(model.CatalogDrinks, "Wine")]
	assert.False(t, keptWine)
	_, keptE := db.products[key(model.CatalogDrinks, "E")]
	assert.True(t, keptE)
}

func TestExecute_ErrorListIsCapped(t *testing.T) {
	db := newMemDB()
	ex := newTestExecutor(db, DefaultPolicy())

	var rows []Row
	for i := 0; i < 15; i++ {
		rows = append(rows, row(i+2, fmt.Sprintf("P%d", i), "Beer", "n/a"))
	}
	out := ex.Execute(context.Background(), model.CatalogDrinks, rows)

	assert.Equal(t, 15, out.ErrorCount)
	assert.Len(t, out.Errors, 10)
}

func TestExecute_CancelledContextStopsBeforeNextBatch(t *testing.T) {
	db := newMemDB()
	ex := newTestExecutor(db, DefaultPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := ex.Execute(ctx, model.CatalogDrinks, []Row{row(2, "Tusker", "Beer", "250")})

	assert.Equal(t, 0, out.Created)
	assert.Empty(t, db.products)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "cancelled")
}

func TestExecute_LostCreateRaceFallsBackToUpdate(t *testing.T) {
	db := newMemDB()
	db.raceProducts = true
	ex := newTestExecutor(db, DefaultPolicy())

	out := ex.Execute(context.Background(), model.CatalogDrinks, []Row{row(2, "Tusker", "Beer", "250")})

	assert.Equal(t, 0, out.Created)
	assert.Equal(t, 1, out.Updated)
	p := db.products[key(model.CatalogDrinks, "Tusker")]
	assert.True(t, p.Price.Equal(decimal.NewFromInt(250)))
	assert.Len(t, db.history, 1)
}
