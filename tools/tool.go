// Package tools provides the static tool-schema catalog offered to the model.
//
// Information Hiding:
// - Tool descriptions and parameter lists hidden in this package
// - Conversion to the runtime's JSON schema shape hidden
// - Callers only see an immutable Catalog
//
// The bridge never executes tools: the calling application does. The catalog
// only tells the local model what it may call.
package tools

import (
	"fmt"

	"github.com/richinex/ollamabridge/llm"
)

// Tool names, as the calling application expects them in tool_use blocks.
const (
	ExecuteCommand                    = "execute_command"
	ListFilesTopLevel                 = "list_files_top_level"
	ListFilesRecursive                = "list_files_recursive"
	ViewSourceCodeDefinitionsTopLevel = "view_source_code_definitions_top_level"
	ReadFile                          = "read_file"
	WriteToFile                       = "write_to_file"
	AskFollowupQuestion               = "ask_followup_question"
	AttemptCompletion                 = "attempt_completion"
)

// ToolParameter defines a parameter schema for a tool.
type ToolParameter struct {
	Name        string `json:"name"`
	ParamType   string `json:"param_type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolMetadata describes what a tool does and how to use it.
type ToolMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
}

// String returns a string representation of the tool metadata.
func (m ToolMetadata) String() string {
	return fmt.Sprintf("%s: %s", m.Name, m.Description)
}

// Definition converts the metadata to the runtime's tool definition.
func (m ToolMetadata) Definition() llm.ToolDefinition {
	props := make(map[string]llm.JSONSchemaProperty, len(m.Parameters))
	required := []string{}
	for _, p := range m.Parameters {
		props[p.Name] = llm.JSONSchemaProperty{
			Type:        p.ParamType,
			Description: p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return llm.ToolDefinition{
		Name:        m.Name,
		Description: m.Description,
		Parameters: llm.JSONSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func required(name, description string) ToolParameter {
	return ToolParameter{Name: name, ParamType: "string", Description: description, Required: true}
}

func optional(name, description string) ToolParameter {
	return ToolParameter{Name: name, ParamType: "string", Description: description}
}

// builtinTools returns the metadata of every catalog tool, in catalog order.
// Descriptions embed workingDir so the model can resolve relative paths.
func builtinTools(workingDir string) []ToolMetadata {
	relPath := fmt.Sprintf("relative to the current working directory %s", workingDir)

	return []ToolMetadata{
		{
			Name: ExecuteCommand,
			Description: "Run a CLI command on the user's system. Use it for system operations or any step of the task " +
				"that needs a command. Tailor the command to the user's system and explain what it does. " +
				"Prefer a direct command over writing a script. Commands run in the current working directory: " + workingDir,
			Parameters: []ToolParameter{
				required("command", "The CLI command to run. It must be valid for the user's operating system and well formed."),
			},
		},
		{
			Name: ListFilesTopLevel,
			Description: "List the files and directories directly inside a directory. Use it for directories whose nested " +
				"structure does not matter, such as the Desktop.",
			Parameters: []ToolParameter{
				required("path", "The directory to list ("+relPath+")"),
			},
		},
		{
			Name: ListFilesRecursive,
			Description: "List every file and directory below a directory. Gives an overview of a project's structure " +
				"to decide which files to explore further.",
			Parameters: []ToolParameter{
				required("path", "The directory to list recursively ("+relPath+")"),
			},
		},
		{
			Name: ViewSourceCodeDefinitionsTopLevel,
			Description: "Parse the source files directly inside a directory and list the names of their key definitions " +
				"such as classes and functions. Helps to understand how a codebase is organized.",
			Parameters: []ToolParameter{
				required("path", "The directory whose source files are parsed ("+relPath+")"),
			},
		},
		{
			Name: ReadFile,
			Description: "Read the contents of a file. Use it to inspect code, text files or configuration. " +
				"Not suited to very large or binary files since the raw content is returned as a string.",
			Parameters: []ToolParameter{
				required("path", "The file to read ("+relPath+")"),
			},
		},
		{
			Name: WriteToFile,
			Description: "Write content to a file, creating it and any missing directories if needed. " +
				"Always send the complete intended content of the file.",
			Parameters: []ToolParameter{
				required("path", "The file to write ("+relPath+")"),
				required("content", "The full content to write to the file."),
			},
		},
		{
			Name: AskFollowupQuestion,
			Description: "Ask the user a question to collect information needed to finish the task. Use it when something " +
				"is ambiguous or missing. Ask sparingly and prefer the other tools when they can answer the question.",
			Parameters: []ToolParameter{
				required("question", "The question for the user. It should be clear and address exactly what is missing."),
			},
		},
		{
			Name: AttemptCompletion,
			Description: "Present the result of the task once it is done. The user may reply with feedback, " +
				"which can be used to improve the result and try again.",
			Parameters: []ToolParameter{
				optional("command", "A CLI command that shows the result to the user, for example opening a built web page."),
				required("result", "The final result of the task. Do not end it with a question or an offer for more help."),
			},
		},
	}
}
