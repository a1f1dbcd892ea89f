package aitools

import "github.com/google/generative-ai-go/genai"

// Declarations returns the function declarations advertised to the
// model. Descriptions steer when the model reaches for each tool.
func Declarations() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "get_school_stats",
				Description: "Get general school statistics. Use this when asked about total students, average scores, or general performance overview.",
			},
			{
				Name:        "search_students",
				Description: "Search for specific students. Use this to find a student's class or details.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":      {Type: genai.TypeString, Description: "Name of the student"},
						"className": {Type: genai.TypeString, Description: "Class name (e.g. '6A')"},
					},
				},
			},
			{
				Name:        "get_exam_results",
				Description: "Get exam results or grades. Use this to find who passed/failed, specific student scores, or class performance lists.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"studentName": {Type: genai.TypeString, Description: "Filter by student name"},
						"className":   {Type: genai.TypeString, Description: "Filter by class name"},
						"examSubject": {Type: genai.TypeString, Description: "Filter by subject or exam title"},
						"limitCount":  {Type: genai.TypeNumber, Description: "Max number of results to return (default 10)"},
					},
				},
			},
			{
				Name:        "get_exam_list",
				Description: "Get a list of active exams.",
			},
			{
				Name:        "get_student_report",
				Description: "Get a detailed report for a specific student, including average score, highest score, and recent history.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"studentName": {Type: genai.TypeString, Description: "Name of the student"},
						"className":   {Type: genai.TypeString, Description: "Class name (optional)"},
					},
					Required: []string{"studentName"},
				},
			},
		},
	}}
}
