package tools

import (
	"context"
	"time"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/storage"
)

const (
	defaultEaseFactor = 2.5
	minEaseFactor     = 1.3
)

// GetUserProgress fetches the user's progress on one knowledge node.
func GetUserProgress() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "get_user_progress",
		Description: "Get the user's progress on a specific knowledge node.",
		Params: []chiron.Param{
			{Name: "node_id", Type: chiron.TypeInteger, Description: "The ID of the knowledge node.", Required: true},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		nodeID, err := intArg(req.Arguments, "node_id")
		if err != nil {
			return nil, err
		}
		progress, err := req.Stores.DB.GetUserProgress(ctx, nodeID)
		if err != nil {
			return nil, err
		}
		if progress == nil {
			return nil, nil
		}
		return progress, nil
	})
}

// RecordAssessment stores one assessment response and folds it into the
// node's progress using an SM-2 style schedule.
func RecordAssessment() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "record_assessment",
		Description: "Record a user's response to an assessment question.",
		Params: []chiron.Param{
			{Name: "node_id", Type: chiron.TypeInteger, Description: "The ID of the knowledge node being assessed.", Required: true},
			{Name: "question_hash", Type: chiron.TypeString, Description: "A hash identifying the specific question.", Required: true},
			{Name: "response", Type: chiron.TypeString, Description: "The user's response text.", Required: true},
			{Name: "correct", Type: chiron.TypeBoolean, Description: "Whether the response was correct.", Required: true},
			{Name: "lesson_id", Type: chiron.TypeInteger, Description: "Optional ID of the lesson."},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		nodeID, err := intArg(req.Arguments, "node_id")
		if err != nil {
			return nil, err
		}
		questionHash, err := strArg(req.Arguments, "question_hash")
		if err != nil {
			return nil, err
		}
		response, err := strArg(req.Arguments, "response")
		if err != nil {
			return nil, err
		}
		correct, err := boolArg(req.Arguments, "correct")
		if err != nil {
			return nil, err
		}
		lessonID, err := optIntPtrArg(req.Arguments, "lesson_id")
		if err != nil {
			return nil, err
		}

		progress, err := req.Stores.DB.GetUserProgress(ctx, nodeID)
		if err != nil {
			return nil, err
		}
		if progress == nil {
			progress = &storage.UserProgress{NodeID: nodeID, EaseFactor: defaultEaseFactor}
		}
		now := time.Now()
		updateProgress(progress, correct, now)
		if err := req.Stores.DB.UpsertUserProgress(ctx, progress); err != nil {
			return nil, err
		}

		assessment := &storage.AssessmentResponse{
			LessonID:     lessonID,
			NodeID:       nodeID,
			QuestionHash: questionHash,
			Response:     response,
			Correct:      correct,
			CreatedAt:    now,
			NextReview:   *progress.NextReview,
		}
		id, err := req.Stores.DB.RecordAssessment(ctx, assessment)
		if err != nil {
			return nil, err
		}
		assessment.ID = id
		return assessment, nil
	})
}

// updateProgress applies one assessment outcome. Mastery moves a third of
// the way toward the score; the ease factor shifts per SM-2 and never drops
// below its floor. A miss always schedules review for the next day.
func updateProgress(p *storage.UserProgress, correct bool, now time.Time) {
	score := 0.0
	if correct {
		score = 1.0
	}
	p.History = append(p.History, score)
	p.MasteryLevel += (score - p.MasteryLevel) / 3
	if p.MasteryLevel < 0 {
		p.MasteryLevel = 0
	}
	if p.MasteryLevel > 1 {
		p.MasteryLevel = 1
	}
	if p.EaseFactor == 0 {
		p.EaseFactor = defaultEaseFactor
	}
	if correct {
		p.EaseFactor += 0.1
	} else {
		p.EaseFactor -= 0.2
	}
	if p.EaseFactor < minEaseFactor {
		p.EaseFactor = minEaseFactor
	}

	intervalDays := 1.0
	if correct {
		intervalDays = p.EaseFactor
	}
	next := now.Add(time.Duration(intervalDays * 24 * float64(time.Hour)))
	p.LastAssessed = &now
	p.NextReview = &next
}
