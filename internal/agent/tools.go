package agent

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/journi-app/journi/internal/trip"
)

// Declarations lists the tools exposed to the model. Each tool maps to
// exactly one ledger or catalog operation; the model never mutates state
// except through these.
func Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "register_expense",
			Description: "Record a shared expense. Use split_among for an equal split, split_amounts for explicit per-person shares, or neither to split across the whole group.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"amount":      {Type: genai.TypeNumber, Description: "Total amount paid."},
					"description": {Type: genai.TypeString, Description: "What the expense was for."},
					"paid_by":     {Type: genai.TypeString, Description: "Name of the person who paid."},
					"currency":    {Type: genai.TypeString, Description: "Three-letter currency code, e.g. PEN or CLP."},
					"split_among": {
						Type:        genai.TypeArray,
						Items:       &genai.Schema{Type: genai.TypeString},
						Description: "Names to split the expense equally among.",
					},
					"split_amounts": {
						Type:        genai.TypeObject,
						Description: "Explicit shares: object mapping each name to the amount they owe. Shares must sum to the total.",
					},
				},
				Required: []string{"amount", "description", "paid_by"},
			},
		},
		{
			Name:        "edit_expense",
			Description: "Change fields of an existing expense. Use expense_id 'last' for the most recent one. Only pass the fields that change.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"expense_id":  {Type: genai.TypeString},
					"amount":      {Type: genai.TypeNumber},
					"description": {Type: genai.TypeString},
					"paid_by":     {Type: genai.TypeString},
					"split_among": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
				},
				Required: []string{"expense_id"},
			},
		},
		{
			Name:        "delete_expense",
			Description: "Remove an expense and undo its effect on balances. Use expense_id 'last' for the most recent one.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"expense_id": {Type: genai.TypeString},
				},
				Required: []string{"expense_id"},
			},
		},
		{
			Name:        "register_payment",
			Description: "Record that one person paid another back directly.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"from_user": {Type: genai.TypeString, Description: "Who paid."},
					"to_user":   {Type: genai.TypeString, Description: "Who received the money."},
					"amount":    {Type: genai.TypeNumber},
					"currency":  {Type: genai.TypeString},
				},
				Required: []string{"from_user", "to_user", "amount"},
			},
		},
		{
			Name:        "get_balance",
			Description: "Report how much a person is owed (positive) or owes (negative), per currency. Omit person for everyone.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"person": {Type: genai.TypeString},
				},
			},
		},
		{
			Name:        "get_debts",
			Description: "Compute the smallest set of transfers that settles all debts, per currency.",
			Parameters:  &genai.Schema{Type: genai.TypeObject},
		},
		{
			Name:        "list_expenses",
			Description: "List all registered expenses with their IDs.",
			Parameters:  &genai.Schema{Type: genai.TypeObject},
		},
		{
			Name:        "create_milestone",
			Description: "Create a milestone: a named moment of the trip that photos attach to.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":        {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"location":    {Type: genai.TypeString},
					"tags": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        "edit_milestone",
			Description: "Change fields of a milestone. Use milestone_id 'last' for the most recent one.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"milestone_id":   {Type: genai.TypeString},
					"name":           {Type: genai.TypeString},
					"description":    {Type: genai.TypeString},
					"location":       {Type: genai.TypeString},
					"cover_photo_id": {Type: genai.TypeString},
				},
				Required: []string{"milestone_id"},
			},
		},
		{
			Name:        "delete_milestone",
			Description: "Remove a milestone. Set delete_photos to also remove its photos.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"milestone_id":  {Type: genai.TypeString},
					"delete_photos": {Type: genai.TypeBoolean},
				},
				Required: []string{"milestone_id"},
			},
		},
		{
			Name:        "list_milestones",
			Description: "List all milestones with their IDs and photo counts.",
			Parameters:  &genai.Schema{Type: genai.TypeObject},
		},
		{
			Name:        "register_photo",
			Description: "Attach the photo the user just sent to a milestone, with the analyzed description, tags and people.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"milestone_id": {Type: genai.TypeString, Description: "Defaults to the most recent milestone."},
					"description":  {Type: genai.TypeString},
					"tags": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"detected_people": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"location": {Type: genai.TypeString},
				},
				Required: []string{"description"},
			},
		},
		{
			Name:        "edit_photo",
			Description: "Change photo metadata, or move it to another milestone by passing milestone_id.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"photo_id":     {Type: genai.TypeString},
					"description":  {Type: genai.TypeString},
					"milestone_id": {Type: genai.TypeString},
					"tags": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"detected_people": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
				},
				Required: []string{"photo_id"},
			},
		},
		{
			Name:        "delete_photo",
			Description: "Remove a photo from the catalog.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"photo_id": {Type: genai.TypeString},
				},
				Required: []string{"photo_id"},
			},
		},
		{
			Name:        "list_photos",
			Description: "List photos, optionally for one milestone (milestone_id may be 'last').",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"milestone_id": {Type: genai.TypeString},
				},
			},
		},
	}
}

// OpFromCall converts a model tool call into the operation it names.
func OpFromCall(name string, args map[string]any) (trip.Op, error) {
	switch name {
	case "register_expense":
		return trip.RegisterExpense{
			Amount:       argFloat(args, "amount"),
			Description:  argString(args, "description"),
			PaidBy:       argString(args, "paid_by"),
			Currency:     argString(args, "currency"),
			SplitAmong:   argStrings(args, "split_among"),
			SplitAmounts: argAmounts(args, "split_amounts"),
		}, nil
	case "edit_expense":
		return trip.EditExpense{
			ExpenseID:   argString(args, "expense_id"),
			Amount:      argFloatPtr(args, "amount"),
			Description: argStringPtr(args, "description"),
			PaidBy:      argStringPtr(args, "paid_by"),
			SplitAmong:  argStrings(args, "split_among"),
		}, nil
	case "delete_expense":
		return trip.DeleteExpense{ExpenseID: argString(args, "expense_id")}, nil
	case "register_payment":
		return trip.RegisterPayment{
			FromUser: argString(args, "from_user"),
			ToUser:   argString(args, "to_user"),
			Amount:   argFloat(args, "amount"),
			Currency: argString(args, "currency"),
		}, nil
	case "get_balance":
		return trip.GetBalance{Person: argString(args, "person")}, nil
	case "get_debts":
		return trip.GetDebts{}, nil
	case "list_expenses":
		return trip.ListExpenses{}, nil
	case "create_milestone":
		return trip.CreateMilestone{
			Name:        argString(args, "name"),
			Description: argString(args, "description"),
			Location:    argString(args, "location"),
			Tags:        argStrings(args, "tags"),
		}, nil
	case "edit_milestone":
		return trip.EditMilestone{
			MilestoneID:  argString(args, "milestone_id"),
			Name:         argString(args, "name"),
			Description:  argString(args, "description"),
			Location:     argString(args, "location"),
			CoverPhotoID: argString(args, "cover_photo_id"),
		}, nil
	case "delete_milestone":
		return trip.DeleteMilestone{
			MilestoneID:  argString(args, "milestone_id"),
			DeletePhotos: argBool(args, "delete_photos"),
		}, nil
	case "list_milestones":
		return trip.ListMilestones{}, nil
	case "register_photo":
		return trip.RegisterPhoto{
			MilestoneID:    argString(args, "milestone_id"),
			Description:    argString(args, "description"),
			Tags:           argStrings(args, "tags"),
			DetectedPeople: argStrings(args, "detected_people"),
			Location:       argString(args, "location"),
		}, nil
	case "edit_photo":
		return trip.EditPhoto{
			PhotoID:        argString(args, "photo_id"),
			Description:    argString(args, "description"),
			Tags:           argStrings(args, "tags"),
			DetectedPeople: argStrings(args, "detected_people"),
			MilestoneID:    argString(args, "milestone_id"),
		}, nil
	case "delete_photo":
		return trip.DeletePhoto{PhotoID: argString(args, "photo_id")}, nil
	case "list_photos":
		return trip.ListPhotos{MilestoneID: argString(args, "milestone_id")}, nil
	default:
		return nil, fmt.Errorf("unknown tool %s", name)
	}
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argStringPtr(args map[string]any, key string) *string {
	s, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// argFloat accepts the integer forms too, since models are loose about
// numeric types.
func argFloat(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func argFloatPtr(args map[string]any, key string) *float64 {
	if _, ok := args[key]; !ok {
		return nil
	}
	f := argFloat(args, key)
	return &f
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func argStrings(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argAmounts(args map[string]any, key string) map[string]float64 {
	raw, ok := args[key].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for name, v := range raw {
		if f, ok := v.(float64); ok {
			out[name] = f
		}
	}
	return out
}
