package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-michi/michi"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/handlers"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"donutshop/auth"
	"donutshop/cart"
	"donutshop/catalog"
	"donutshop/checkout"
	"donutshop/controllers"
	"donutshop/order"
	"donutshop/store"
	"donutshop/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}

	connStr := os.Getenv("DATABASE_CONNECTION_STR")
	if connStr == "" {
		log.Fatal("DATABASE_CONNECTION_STR not set in .env file")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set in .env file")
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	// Connect to the database
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
	defer db.Close()

	// Handle migrations
	mig, err := migrate.New(
		"file://"+GetRootPath("database/migrations"),
		connStr,
	)
	if err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
	if err := mig.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal(utils.ErrorWithTrace(err, err.Error()))
		}
		log.Printf("migrations: %s", err.Error())
	}

	// Wire the document store, managers and handlers
	docs := store.NewPostgres(db)
	authSvc := auth.NewService(docs, jwtSecret, 24*time.Hour)
	products := catalog.New(docs)
	carts := cart.NewManager(docs)
	orders := order.NewManager(docs)
	checkouts := checkout.New(carts, orders)
	controllers.Init(authSvc, products, carts, orders, checkouts)

	// Initialize the router and define routes
	r := michi.NewRouter()
	r.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))))

	r.Route("/auth", func(sub *michi.Router) {
		sub.HandleFunc("POST signup", controllers.Signup)
		sub.HandleFunc("POST login", controllers.Login)
		sub.HandleFunc("POST logout", controllers.Logout)
		sub.HandleFunc("GET session", controllers.Session)
	})

	r.Route("/products", func(sub *michi.Router) {
		sub.HandleFunc("GET ", controllers.GetProducts)
		sub.HandleFunc("GET mine", controllers.GetSellerProducts)
		sub.HandleFunc("GET {id}", controllers.GetProductById)
		sub.HandleFunc("POST ", controllers.AddProduct)
		sub.HandleFunc("PUT {id}", controllers.UpdateProduct)
		sub.HandleFunc("DELETE {id}", controllers.DeleteProduct)
	})

	r.Route("/cart", func(sub *michi.Router) {
		sub.HandleFunc("GET ", controllers.GetCart)
		sub.HandleFunc("POST items", controllers.AddToCart)
		sub.HandleFunc("PUT items/{id}", controllers.UpdateCartItem)
		sub.HandleFunc("DELETE items/{id}", controllers.RemoveCartItem)
		sub.HandleFunc("DELETE ", controllers.ClearCart)
	})

	r.Route("/orders", func(sub *michi.Router) {
		sub.HandleFunc("POST checkout", controllers.Checkout)
		sub.HandleFunc("GET mine", controllers.GetMyOrders)
		sub.HandleFunc("GET selling", controllers.GetSellerOrders)
		sub.HandleFunc("GET {id}", controllers.GetOrderById)
		sub.HandleFunc("PUT {id}/status", controllers.UpdateOrderStatus)
	})

	r.HandleFunc("GET /ws/cart", controllers.CartStream)

	// Enable CORS
	corsOptions := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	fmt.Printf("Server running on port %s 🚀\n", port)
	if err := http.ListenAndServe(":"+port, corsOptions(r)); err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
}

func GetRootPath(dir string) string {
	ex, err := os.Executable()
	if err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
	return path.Join(path.Dir(ex), dir)
}
