// Package main populates a running book and review service pair with sample
// data through their public HTTP APIs.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	pkgconfig "github.com/utafrali/bookreview/pkg/config"
	"github.com/utafrali/bookreview/pkg/httpclient"
	"github.com/utafrali/bookreview/pkg/logger"
)

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

type seedConfig struct {
	BookServiceURL   string        `env:"BOOK_SERVICE_URL" envDefault:"http://localhost:8000"`
	ReviewServiceURL string        `env:"REVIEW_SERVICE_URL" envDefault:"http://localhost:8001"`
	Timeout          time.Duration `env:"SEED_TIMEOUT" envDefault:"1m"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
}

// --------------------------------------------------------------------------
// Seed data definitions
// --------------------------------------------------------------------------

type bookDef struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Description   string `json:"description,omitempty"`
	PublishedYear int    `json:"published_year,omitempty"`
}

type reviewDef struct {
	Reviewer string `json:"reviewer"`
	Content  string `json:"content,omitempty"`
	Rating   int    `json:"rating"`
}

var books = []bookDef{
	{Title: "Dune", Author: "Frank Herbert", Description: "Politics and prophecy on a desert planet.", PublishedYear: 1965},
	{Title: "Pride and Prejudice", Author: "Jane Austen", PublishedYear: 1813},
	{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Description: "An envoy on a world without fixed gender.", PublishedYear: 1969},
	{Title: "Beloved", Author: "Toni Morrison", PublishedYear: 1987},
	{Title: "The Name of the Rose", Author: "Umberto Eco", Description: "A murder mystery in a medieval abbey.", PublishedYear: 1980},
}

var reviews = []reviewDef{
	{Reviewer: "alice", Content: "Could not put it down.", Rating: 5},
	{Reviewer: "bob", Content: "Slow start, great finish.", Rating: 4},
	{Reviewer: "carol", Rating: 3},
}

// --------------------------------------------------------------------------
// main
// --------------------------------------------------------------------------

func main() {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cfg seedConfig
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client := httpclient.New(httpclient.DefaultConfig())

	log.Info("seeding books", slog.String("url", cfg.BookServiceURL), slog.Int("count", len(books)))
	var bookIDs []int64
	for _, b := range books {
		var created struct {
			ID int64 `json:"id"`
		}
		if err := postJSON(ctx, client, cfg.BookServiceURL+"/books", "book-service", b, &created); err != nil {
			log.Warn("book not created", slog.String("title", b.Title), slog.String("error", err.Error()))
			continue
		}
		bookIDs = append(bookIDs, created.ID)
		log.Info("book created", slog.Int64("book_id", created.ID), slog.String("title", b.Title))
	}

	log.Info("seeding reviews", slog.String("url", cfg.ReviewServiceURL))
	reviewCount := 0
	for i, bookID := range bookIDs {
		// Every book gets a different number of reviews, starting with one.
		for _, r := range reviews[:1+i%len(reviews)] {
			body := struct {
				BookID int64 `json:"book_id"`
				reviewDef
			}{BookID: bookID, reviewDef: r}

			if err := postJSON(ctx, client, cfg.ReviewServiceURL+"/reviews", "review-service", body, nil); err != nil {
				log.Warn("review not created", slog.Int64("book_id", bookID), slog.String("error", err.Error()))
				continue
			}
			reviewCount++
		}
	}

	log.Info("seed complete", slog.Int("books", len(bookIDs)), slog.Int("reviews", reviewCount))
}

// postJSON posts body to url and decodes a 201 response into out when out
// is non-nil.
func postJSON(ctx context.Context, client *httpclient.Client, url, service string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	resp, err := client.Post(ctx, url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return httpclient.ParseResponseError(resp, service)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
