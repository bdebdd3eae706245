package service_test

import (
	"context"
	"strings"
	"testing"

	"sipndash/internal/catalogimport"
	"sipndash/internal/model"
	"sipndash/internal/repository"
	"sipndash/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newImportDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Category{}, &model.Product{}, &model.PriceHistory{}))
	return db
}

func newImportService(db *gorm.DB) service.ImportService {
	return service.NewImportService(
		repository.NewCategoryRepository(db),
		repository.NewProductRepository(db),
		repository.NewPriceHistoryRepository(db),
		catalogimport.DefaultPolicy(),
	)
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestImportService_PartialSuccessAgainstSQLite(t *testing.T) {
	db := newImportDB(t)
	svc := newImportService(db)

	csv := "name,category,price,description\n" +
		"Tusker,Beer,250,Kenyan lager\n" +
		"White Cap,Beer,abc,\n" +
		"Mojito,Cocktails,650.5,\n"

	out, err := svc.Import(context.Background(), model.CatalogDrinks, "menu.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Created)
	assert.Equal(t, 0, out.Updated)
	assert.Equal(t, catalogimport.StatusPartialSuccess, out.Status)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "row 3")

	assert.Equal(t, int64(2), countRows(t, db, &model.Product{}))
	assert.Equal(t, int64(2), countRows(t, db, &model.Category{}))

	var tusker model.Product
	require.NoError(t, db.Where("name = ?", "Tusker").Take(&tusker).Error)
	assert.Equal(t, model.DefaultStock, tusker.Stock)
	assert.True(t, tusker.Active)
}

func TestImportService_ReimportUpdatesAndRecordsPrice(t *testing.T) {
	db := newImportDB(t)
	svc := newImportService(db)

	_, err := svc.Import(context.Background(), model.CatalogDrinks, "menu.csv",
		strings.NewReader("name,category,price\nTusker,Beer,250\n"))
	require.NoError(t, err)

	out, err := svc.Import(context.Background(), model.CatalogDrinks, "menu.csv",
		strings.NewReader("name,category,price\nTusker,Beer,275\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Created)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, catalogimport.StatusSuccess, out.Status)
	assert.Equal(t, int64(1), countRows(t, db, &model.Product{}))
	assert.Equal(t, int64(1), countRows(t, db, &model.PriceHistory{}))
}

func TestImportService_MissingHeadersWritesNothing(t *testing.T) {
	db := newImportDB(t)
	svc := newImportService(db)

	_, err := svc.Import(context.Background(), model.CatalogDrinks, "menu.csv",
		strings.NewReader("name,price\nTusker,250\n"))
	var se *catalogimport.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Missing, "category")

	assert.Zero(t, countRows(t, db, &model.Product{}))
	assert.Zero(t, countRows(t, db, &model.Category{}))
}
