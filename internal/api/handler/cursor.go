package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/service"
)

func DecodeJobCursor(cursorStr string) (*service.JobCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	decodedParts := strings.Split(string(decoded), "|")
	if len(decodedParts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var createdAt int64
	if _, err := fmt.Sscanf(decodedParts[0], "%d", &createdAt); err != nil {
		return nil, fmt.Errorf("invalid createdAt in cursor: %w", err)
	}

	var jobID int64
	if _, err := fmt.Sscanf(decodedParts[1], "%d", &jobID); err != nil {
		return nil, fmt.Errorf("invalid jobID in cursor: %w", err)
	}

	return &service.JobCursor{
		CreatedAt: time.Unix(0, createdAt),
		JobID:     jobID,
	}, nil
}

func EncodeJobCursor(cursor *service.JobCursor) string {
	cs := fmt.Sprintf("%d|%d", cursor.CreatedAt.UnixNano(), cursor.JobID)
	return base64.StdEncoding.EncodeToString([]byte(cs))
}
