// Command seed loads demo hotels, rooms, users, bookings, and payments
// into the configured docstore from a YAML fixture.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"innkeeper/internal/config"
	"innkeeper/internal/docstore"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Hotels     []string      `yaml:"hotels"`
	Categories []string      `yaml:"categories"`
	Rooms      []seedRoom    `yaml:"rooms"`
	Users      []seedUser    `yaml:"users"`
	Bookings   []seedBooking `yaml:"bookings"`
}

type seedRoom struct {
	RoomNo       string  `yaml:"roomNo"`
	Hotel        string  `yaml:"hotel"`
	Category     string  `yaml:"category"`
	Price        float64 `yaml:"price"`
	Status       string  `yaml:"status"`
	PropertyType string  `yaml:"propertyType"`
}

type seedUser struct {
	UserName string `yaml:"userName"`
	Email    string `yaml:"email"`
	Number   string `yaml:"number"`
	Gender   string `yaml:"gender"`
	Address  string `yaml:"address"`
}

type seedBooking struct {
	User     string        `yaml:"user"`
	Rooms    []string      `yaml:"rooms"`
	Status   string        `yaml:"status"`
	CheckIn  string        `yaml:"checkIn"`
	CheckOut string        `yaml:"checkOut"`
	Persons  int           `yaml:"persons"`
	Payments []seedPayment `yaml:"payments"`
}

type seedPayment struct {
	Amount float64 `yaml:"amount"`
	Label  string  `yaml:"label"`
	Type   string  `yaml:"type"`
	Status string  `yaml:"status"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath   = flag.String("seed", "configs/seed.yaml", "path to seed fixture")
		configPath = flag.String("config", "configs/config.yaml", "path to config")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var fixture seedFile
	if err = yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Docstore.Driver == "memory" {
		return fmt.Errorf("the memory driver keeps nothing; point the seed at redis")
	}

	client := docstore.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	store := docstore.NewRedisStore(client)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	counts, err := seed(ctx, store, &fixture)
	if err != nil {
		return err
	}

	logger.Info().
		Int("hotels", counts[models.CollectionHotels]).
		Int("categories", counts[models.CollectionCategories]).
		Int("rooms", counts[models.CollectionRooms]).
		Int("users", counts[models.CollectionUsers]).
		Int("bookings", counts[models.CollectionBookings]).
		Int("payments", counts[models.CollectionPayments]).
		Msg("seed complete")
	return nil
}

func seed(ctx context.Context, store docstore.Store, fixture *seedFile) (map[string]int, error) {
	counts := make(map[string]int)

	hotelIDs := make(map[string]string, len(fixture.Hotels))
	for _, name := range fixture.Hotels {
		id, err := store.Add(ctx, models.CollectionHotels, models.Hotel{HotelName: name})
		if err != nil {
			return nil, fmt.Errorf("hotel %s: %w", name, err)
		}
		hotelIDs[name] = id
		counts[models.CollectionHotels]++
	}

	categoryIDs := make(map[string]string, len(fixture.Categories))
	for _, name := range fixture.Categories {
		id, err := store.Add(ctx, models.CollectionCategories, models.Category{CategoryName: name})
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", name, err)
		}
		categoryIDs[name] = id
		counts[models.CollectionCategories]++
	}

	roomIDs := make(map[string]string, len(fixture.Rooms))
	for _, r := range fixture.Rooms {
		status := r.Status
		if status == "" {
			status = models.RoomStatusAvailable
		}
		propertyType := r.PropertyType
		if propertyType == "" {
			propertyType = models.PropertyTypeOwned
		}
		id, err := store.Add(ctx, models.CollectionRooms, models.Room{
			HotelID:      hotelIDs[r.Hotel],
			CategoryID:   categoryIDs[r.Category],
			RoomNo:       r.RoomNo,
			Price:        r.Price,
			Status:       status,
			PropertyType: propertyType,
		})
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", r.RoomNo, err)
		}
		roomIDs[r.RoomNo] = id
		counts[models.CollectionRooms]++
	}

	userIDs := make(map[string]string, len(fixture.Users))
	for _, u := range fixture.Users {
		id, err := store.Add(ctx, models.CollectionUsers, models.User{
			UserName: u.UserName,
			Email:    u.Email,
			Number:   u.Number,
			Gender:   u.Gender,
			Address:  u.Address,
		})
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.UserName, err)
		}
		userIDs[u.UserName] = id
		counts[models.CollectionUsers]++
	}

	paymentClock := time.Now().Add(-24 * time.Hour)
	for i, b := range fixture.Bookings {
		checkIn, err := time.Parse("2006-01-02", b.CheckIn)
		if err != nil {
			return nil, fmt.Errorf("booking %d checkIn: %w", i, err)
		}
		checkOut, err := time.Parse("2006-01-02", b.CheckOut)
		if err != nil {
			return nil, fmt.Errorf("booking %d checkOut: %w", i, err)
		}

		rooms := make([]string, 0, len(b.Rooms))
		total := 0.0
		for _, roomNo := range b.Rooms {
			id, ok := roomIDs[roomNo]
			if !ok {
				return nil, fmt.Errorf("booking %d references unknown room %s", i, roomNo)
			}
			rooms = append(rooms, id)
		}
		for _, r := range fixture.Rooms {
			for _, roomNo := range b.Rooms {
				if r.RoomNo == roomNo {
					total += r.Price
				}
			}
		}

		status := b.Status
		if status == "" {
			status = models.BookingStatusPending
		}
		bookingID, err := store.Add(ctx, models.CollectionBookings, models.Booking{
			UserID:       userIDs[b.User],
			RoomIDs:      rooms,
			Status:       status,
			CheckInDate:  checkIn,
			CheckOutDate: checkOut,
			Persons:      b.Persons,
		})
		if err != nil {
			return nil, fmt.Errorf("booking %d: %w", i, err)
		}
		counts[models.CollectionBookings]++

		for _, p := range b.Payments {
			paymentClock = paymentClock.Add(time.Minute)
			paymentStatus := p.Status
			if paymentStatus == "" {
				paymentStatus = models.PaymentStatusPending
			}
			_, err := store.Add(ctx, models.CollectionPayments, models.Payment{
				BookingID:   bookingID,
				Label:       p.Label,
				PaidAmount:  p.Amount,
				TotalAmount: total,
				PaymentType: p.Type,
				PaymentDate: paymentClock,
				Status:      paymentStatus,
			})
			if err != nil {
				return nil, fmt.Errorf("booking %d payment: %w", i, err)
			}
			counts[models.CollectionPayments]++
		}
	}

	return counts, nil
}
