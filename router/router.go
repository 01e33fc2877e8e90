package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tableshare/tableshare/controllers"
	"github.com/tableshare/tableshare/middlewares"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db)
	sessionCtrl := controllers.NewSessionController(db)
	cartCtrl := controllers.NewCartController(db)
	orderCtrl := controllers.NewOrderController(db)
	menuCtrl := controllers.NewMenuController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------

	// Catalog reads need no credential; menu data is stale-tolerant.
	r.GET("/categories", menuCtrl.GetAllCategories)
	r.GET("/menus", menuCtrl.GetAllMenus)
	r.GET("/menus/by-category", menuCtrl.GetMenusByCategory)

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/auth/register", userCtrl.Register)
		public.POST("/auth/login", userCtrl.Login)
		// Join carries its own locator credential (QR token or code).
		public.POST("/join", sessionCtrl.Join)
	}

	// ----------------------------------------------------------------
	//                      SESSION ROUTES (participants)
	// ----------------------------------------------------------------
	session := r.Group("/session")
	session.Use(middlewares.SessionAuthMiddleware())
	{
		session.GET("/current", sessionCtrl.GetCurrent)
		session.POST("/leave", sessionCtrl.Leave)
		session.POST("/rounds", sessionCtrl.NewRound)

		session.GET("/cart", cartCtrl.GetCart)
		session.POST("/cart/mutations", cartCtrl.ApplyMutation)

		session.GET("/orders", orderCtrl.ListSessionOrders)
		session.POST("/orders", orderCtrl.Place)
	}

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/staff")
	staff.Use(middlewares.StaffAuthMiddleware())
	{
		staff.POST("/tables", tableCtrl.CreateTable)
		staff.GET("/tables", tableCtrl.GetAllTables)
		staff.GET("/tables/:table_id/token", tableCtrl.GetTableToken)

		staff.POST("/sessions/:session_id/close", sessionCtrl.Close)
		staff.POST("/sessions/:session_id/rounds", sessionCtrl.NewRoundStaff)

		staff.GET("/orders", orderCtrl.ListStoreOrders)
		staff.PATCH("/orders/:order_id/status", orderCtrl.AdvanceStatus)
		staff.PATCH("/order-items/:item_id/status", orderCtrl.AdvanceItemStatus)
	}

	// ----------------------------------------------------------------
	//                      WEBSOCKET ROUTES
	// ----------------------------------------------------------------
	ws := r.Group("/ws")
	{
		ws.GET("/session", middlewares.SessionWebSocketAuthMiddleware(), controllers.SessionWS)
		ws.GET("/store", middlewares.StaffWebSocketAuthMiddleware(), controllers.StaffWS)
	}

	return r
}
