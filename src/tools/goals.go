package tools

import (
	"context"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/storage"
)

// GetLearningGoal fetches the learning goal for one subject.
func GetLearningGoal() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "get_learning_goal",
		Description: "Get the learning goal for a specific subject.",
		Params: []chiron.Param{
			{Name: "subject_id", Type: chiron.TypeString, Description: "The identifier of the subject to retrieve.", Required: true},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		subjectID, err := strArg(req.Arguments, "subject_id")
		if err != nil {
			return nil, err
		}
		goal, err := req.Stores.DB.GetLearningGoal(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		if goal == nil {
			return nil, nil
		}
		return goal, nil
	})
}

// SaveLearningGoal creates or updates the learning goal for a subject.
func SaveLearningGoal() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "save_learning_goal",
		Description: "Save or update a learning goal for a subject.",
		Params: []chiron.Param{
			{Name: "subject_id", Type: chiron.TypeString, Description: "The unique identifier for this subject.", Required: true},
			{Name: "purpose_statement", Type: chiron.TypeString, Description: "Why the user wants to learn this subject.", Required: true},
			{Name: "target_depth", Type: chiron.TypeString, Description: "Desired depth of learning."},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		subjectID, err := strArg(req.Arguments, "subject_id")
		if err != nil {
			return nil, err
		}
		purpose, err := strArg(req.Arguments, "purpose_statement")
		if err != nil {
			return nil, err
		}
		depth, err := optStrArg(req.Arguments, "target_depth", "practical")
		if err != nil {
			return nil, err
		}

		goal := &storage.LearningGoal{
			SubjectID:        subjectID,
			PurposeStatement: purpose,
			TargetDepth:      depth,
			Status:           storage.StatusInitializing,
		}
		id, err := req.Stores.DB.SaveLearningGoal(ctx, goal)
		if err != nil {
			return nil, err
		}
		goal.ID = id
		return goal, nil
	})
}
