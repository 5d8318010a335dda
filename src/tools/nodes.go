package tools

import (
	"context"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/storage"
)

// GetKnowledgeNode fetches one knowledge node by id.
func GetKnowledgeNode() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "get_knowledge_node",
		Description: "Get a specific knowledge node by its ID.",
		Params: []chiron.Param{
			{Name: "node_id", Type: chiron.TypeInteger, Description: "The database ID of the knowledge node.", Required: true},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		nodeID, err := intArg(req.Arguments, "node_id")
		if err != nil {
			return nil, err
		}
		node, err := req.Stores.DB.GetKnowledgeNode(ctx, nodeID)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, nil
		}
		return node, nil
	})
}

// GetKnowledgeTree fetches every node of a subject's knowledge tree.
func GetKnowledgeTree() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "get_knowledge_tree",
		Description: "Get all knowledge nodes for a subject as a tree structure.",
		Params: []chiron.Param{
			{Name: "subject_id", Type: chiron.TypeString, Description: "The subject identifier.", Required: true},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		subjectID, err := strArg(req.Arguments, "subject_id")
		if err != nil {
			return nil, err
		}
		nodes, err := req.Stores.DB.KnowledgeTree(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		if nodes == nil {
			nodes = []storage.KnowledgeNode{}
		}
		return nodes, nil
	})
}

// SaveKnowledgeNode creates a new knowledge node.
func SaveKnowledgeNode() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "save_knowledge_node",
		Description: "Save a new knowledge node or update an existing one.",
		Params: []chiron.Param{
			{Name: "subject_id", Type: chiron.TypeString, Description: "The subject this node belongs to.", Required: true},
			{Name: "title", Type: chiron.TypeString, Description: "The title/name of this knowledge node.", Required: true},
			{Name: "description", Type: chiron.TypeString, Description: "Optional detailed description."},
			{Name: "parent_id", Type: chiron.TypeInteger, Description: "ID of the parent node (omit for root nodes)."},
			{Name: "depth", Type: chiron.TypeInteger, Description: "Depth in the tree (0 for root)."},
			{Name: "is_goal_critical", Type: chiron.TypeBoolean, Description: "Whether critical for the learning goal."},
			{Name: "prerequisites", Type: chiron.TypeArray, Items: chiron.TypeInteger, Description: "List of node IDs that must be learned first."},
			{Name: "shared_with_subjects", Type: chiron.TypeArray, Items: chiron.TypeString, Description: "List of other subjects sharing this node."},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		subjectID, err := strArg(req.Arguments, "subject_id")
		if err != nil {
			return nil, err
		}
		title, err := strArg(req.Arguments, "title")
		if err != nil {
			return nil, err
		}
		description, err := optStrArg(req.Arguments, "description", "")
		if err != nil {
			return nil, err
		}
		parentID, err := optIntPtrArg(req.Arguments, "parent_id")
		if err != nil {
			return nil, err
		}
		depth, err := optIntArg(req.Arguments, "depth", 0)
		if err != nil {
			return nil, err
		}
		goalCritical, err := optBoolArg(req.Arguments, "is_goal_critical", false)
		if err != nil {
			return nil, err
		}
		prerequisites, err := optIntSliceArg(req.Arguments, "prerequisites")
		if err != nil {
			return nil, err
		}
		sharedWith, err := optStrSliceArg(req.Arguments, "shared_with_subjects")
		if err != nil {
			return nil, err
		}

		node := &storage.KnowledgeNode{
			SubjectID:     subjectID,
			Title:         title,
			Description:   description,
			ParentID:      parentID,
			Depth:         int(depth),
			GoalCritical:  goalCritical,
			Prerequisites: prerequisites,
			SharedWith:    sharedWith,
		}
		id, err := req.Stores.DB.SaveKnowledgeNode(ctx, node)
		if err != nil {
			return nil, err
		}
		node.ID = id
		return node, nil
	})
}
