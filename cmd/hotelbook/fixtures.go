package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	domainaccount "hotelbook/internal/domain/account"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/money"
	"hotelbook/internal/infra/config"
	"hotelbook/internal/infra/storage/memory"
)

type fixtureFile struct {
	Properties []propertyFixture `json:"properties"`
	Accounts   []accountFixture  `json:"accounts"`
}

type propertyFixture struct {
	ID               string   `json:"id"`
	ManagerID        string   `json:"manager_id"`
	Name             string   `json:"name"`
	City             string   `json:"city"`
	Country          string   `json:"country"`
	NightlyRate      int64    `json:"nightly_rate"`
	UnavailableDates []string `json:"unavailable_dates"`
}

type accountFixture struct {
	Kind        string   `json:"kind"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Wallet      int64    `json:"wallet"`
	PropertyIDs []string `json:"property_ids"`
}

// loadFixtures seeds the in-memory store. The platform wallet is always
// created because settlements credit it.
func loadFixtures(store *memory.Store, path string, cfg config.Config, logger *slog.Logger) error {
	store.Accounts.Put(domainaccount.Account{
		Ref:    domainaccount.Platform(cfg.PlatformAccountID),
		Name:   "Platform",
		Wallet: money.Zero(cfg.Currency),
	})

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures fixtureFile
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures.Properties {
		rate, err := money.New(fx.NightlyRate, cfg.Currency)
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		p := &domainproperty.Property{
			ID:          domainproperty.ID(fx.ID),
			ManagerID:   fx.ManagerID,
			Name:        fx.Name,
			Address:     domainproperty.Address{City: fx.City, Country: fx.Country},
			NightlyRate: rate,
			Listed:      true,
		}
		for _, raw := range fx.UnavailableDates {
			day, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				logger.Warn("fixture date skipped", "property_id", fx.ID, "date", raw)
				continue
			}
			p.Availability = append(p.Availability, domainproperty.AvailabilityEntry{Date: day, IsAvailable: false})
		}
		store.Properties.Put(p)
		logger.Info("property fixture imported", "property_id", fx.ID)
	}

	for _, fx := range fixtures.Accounts {
		kind := domainaccount.Kind(fx.Kind)
		if !kind.Valid() {
			logger.Error("fixture invalid", "account_id", fx.ID, "error", domainaccount.ErrInvalidKind)
			continue
		}
		wallet, err := money.New(fx.Wallet, cfg.Currency)
		if err != nil {
			logger.Error("fixture invalid", "account_id", fx.ID, "error", err)
			continue
		}
		store.Accounts.Put(domainaccount.Account{
			Ref:         domainaccount.Ref{Kind: kind, ID: fx.ID},
			Name:        fx.Name,
			Email:       fx.Email,
			Wallet:      wallet,
			PropertyIDs: fx.PropertyIDs,
		})
	}
	return nil
}

func fixturesPath() string {
	if p := os.Getenv("FIXTURES_PATH"); p != "" {
		return p
	}
	return filepath.Join("data", "fixtures.json")
}
