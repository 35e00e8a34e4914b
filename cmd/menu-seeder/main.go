package main

import (
	"context"
	"flag"
	"os"

	"github.com/campuscanteen/canteen-service/internal/config"
	"github.com/campuscanteen/canteen-service/internal/menu"
	"github.com/campuscanteen/canteen-service/internal/storage"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type seedEntry struct {
	Name        string  `mapstructure:"name"`
	Price       float64 `mapstructure:"price"`
	ImageURL    string  `mapstructure:"image_url"`
	Description string  `mapstructure:"description"`
	// Pointer so an omitted flag seeds as available rather than silently
	// hiding the item.
	Available *bool `mapstructure:"available"`
}

type seedFile struct {
	Items []seedEntry `mapstructure:"items"`
}

func (e seedEntry) valid() bool {
	return e.Name != "" && e.Price >= 0
}

func (e seedEntry) menuItem() models.MenuItem {
	available := true
	if e.Available != nil {
		available = *e.Available
	}
	return models.MenuItem{
		ID:          uuid.New().String(),
		Name:        e.Name,
		Price:       e.Price,
		ImageURL:    e.ImageURL,
		Description: e.Description,
		Available:   available,
	}
}

// menu-seeder loads an initial menu into the database from a YAML file:
//
//	items:
//	  - name: Veg Thali
//	    price: 80
//	    description: Dal, rice, roti, sabzi
//	    available: true
func main() {
	configPath := flag.String("config", os.Getenv("CANTEEN_CONFIG"), "path to config file")
	menuPath := flag.String("file", "menu.yaml", "path to menu YAML file")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	v := viper.New()
	v.SetConfigFile(*menuPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		logger.WithError(err).Fatal("Failed to read menu file")
	}

	var seed seedFile
	if err := v.Unmarshal(&seed); err != nil {
		logger.WithError(err).Fatal("Failed to parse menu file")
	}
	if len(seed.Items) == 0 {
		logger.Fatal("Menu file contains no items")
	}

	db, err := storage.Open(cfg.Postgres, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := storage.Migrate(db); err != nil {
		logger.WithError(err).Fatal("Failed to create tables")
	}

	store := menu.NewStore(db)
	ctx := context.Background()

	var inserted int
	for _, entry := range seed.Items {
		if !entry.valid() {
			logger.WithField("name", entry.Name).Warn("Skipping invalid menu entry")
			continue
		}
		item := entry.menuItem()
		if err := store.Insert(ctx, &item); err != nil {
			logger.WithError(err).WithField("name", entry.Name).Error("Failed to insert menu item")
			continue
		}
		inserted++
	}

	logger.WithFields(logrus.Fields{
		"inserted": inserted,
		"total":    len(seed.Items),
	}).Info("Menu seeded")
}
