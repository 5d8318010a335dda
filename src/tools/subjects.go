package tools

import (
	"context"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/storage"
)

const activeSubjectKey = "active_subject"

// GetActiveSubject reads the currently active learning subject.
func GetActiveSubject() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "get_active_subject",
		Description: "Get the currently active learning subject.",
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		subjectID, err := req.Stores.DB.GetSetting(ctx, activeSubjectKey)
		if err != nil {
			return nil, err
		}
		if subjectID == "" {
			return map[string]any{"active_subject": nil}, nil
		}
		return map[string]any{"active_subject": subjectID}, nil
	})
}

// SetActiveSubject switches the active learning subject.
func SetActiveSubject() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "set_active_subject",
		Description: "Set the active learning subject.",
		Params: []chiron.Param{
			{Name: "subject_id", Type: chiron.TypeString, Description: "The identifier of the subject to make active.", Required: true},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		subjectID, err := strArg(req.Arguments, "subject_id")
		if err != nil {
			return nil, err
		}
		if err := req.Stores.DB.SetSetting(ctx, activeSubjectKey, subjectID); err != nil {
			return nil, err
		}
		return map[string]any{
			"status":         "success",
			"active_subject": subjectID,
		}, nil
	})
}

// ListSubjects lists every subject that has a learning goal.
func ListSubjects() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "list_subjects",
		Description: "List all subjects with learning goals.",
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		goals, err := req.Stores.DB.ListSubjects(ctx)
		if err != nil {
			return nil, err
		}
		if goals == nil {
			goals = []storage.LearningGoal{}
		}
		return goals, nil
	})
}
