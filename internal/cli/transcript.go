package cli

import (
	"context"
	"fmt"
	"time"

	"taskpilot/internal/timeutil"
	"taskpilot/internal/transcript"
)

// ShowTranscript prints the stored conversation records oldest first.
func ShowTranscript() error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := transcript.NewStore(database).List(context.Background())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("The transcript is empty")
		return nil
	}
	now := time.Now()
	for _, record := range records {
		stamp := timeutil.Relative(time.Unix(record.CreatedAt, 0), now)
		fmt.Printf("[%s] %s: %s\n", stamp, record.Role, record.Content)
	}
	return nil
}
