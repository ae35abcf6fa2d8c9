package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"verification-service/client"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	var (
		server    = flag.String("server", "http://localhost:4000", "verification service base URL")
		filePath  = flag.String("file", "", "path to the proof photo")
		projectID = flag.String("project", "", "project id the proof belongs to")
		token     = flag.String("token", os.Getenv("VERIFY_TOKEN"), "bearer token (defaults to VERIFY_TOKEN)")
	)
	flag.Parse()

	if *filePath == "" || *projectID == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read file")
	}

	mimeType := mime.TypeByExtension(filepath.Ext(*filePath))

	img, err := client.Normalize(data, mimeType)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Normalization failed")
	}

	zlog.Logger.Info().
		Int("width", img.Width).
		Int("height", img.Height).
		Int("bytes", len(img.Data)).
		Int("quality", img.Quality).
		Msg("Photo normalized")

	c := client.New(*server, client.WithStateFunc(func(s client.State) {
		zlog.Logger.Info().Str("state", string(s)).Msg("Upload state")
	}))

	result, err := c.Submit(context.Background(), img, *projectID, *token)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("uploaded: %s (%dx%d, %d bytes, quality %d, submission %s)\n",
		result.URL, result.Width, result.Height, result.Bytes, result.Quality, result.SubmissionID)
}
