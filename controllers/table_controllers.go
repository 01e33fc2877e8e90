package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableshare/tableshare/models"
	"github.com/tableshare/tableshare/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

func newShortCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

// CreateTable -> staff adds a table; a join short code is generated.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		StoreID:     staffStoreID(c),
		TableNumber: req.TableNumber,
		ShortCode:   newShortCode(),
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("table %s created (code=%s)", table.TableNumber, table.ShortCode)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// GetAllTables -> tables of the caller's store.
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Where("store_id = ?", staffStoreID(c)).Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableToken -> signed locator for the table QR code.
func (tc *TableController) GetTableToken(c *gin.Context) {
	idStr := c.Param("table_id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.StoreID != staffStoreID(c) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	token, err := utils.GenerateTableToken(table.StoreID, table.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table token", gin.H{
		"table_id":    table.ID,
		"table_token": token,
		"short_code":  table.ShortCode,
	})
}

// ErrNoPermission is returned when a staff credential targets another store.
var ErrNoPermission = &CustomError{"You do not have permission"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}
