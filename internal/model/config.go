package model

// ModelConfig declares a model adapter: how variables are marked in the model
// text and how outputs are extracted from a finished case directory
type ModelConfig struct {
	ID        string            `yaml:"id" json:"id"`
	VarPrefix string            `yaml:"varprefix" json:"varprefix"`
	Delim     string            `yaml:"delim" json:"delim"`
	Output    map[string]string `yaml:"output" json:"output"` // output variable -> extraction command
}

// CalculatorConfig is an alias record for a live calculator (e.g. calculators/localhost.json)
type CalculatorConfig struct {
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	URI     string `yaml:"uri" json:"uri"`
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retries int    `yaml:"retries,omitempty" json:"retries,omitempty"`
}

// ProjectConfig holds run defaults from <config-dir>/config.yaml
type ProjectConfig struct {
	Workers     int      `yaml:"workers,omitempty" json:"workers,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	ResultsDir  string   `yaml:"resultsDir,omitempty" json:"resultsDir,omitempty"`
	Calculators []string `yaml:"calculators,omitempty" json:"calculators,omitempty"`
	LogLevel    string   `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
	LogFormat   string   `yaml:"logFormat,omitempty" json:"logFormat,omitempty"`
	Ledger      string   `yaml:"ledger,omitempty" json:"ledger,omitempty"`
}

// RunManifest describes a run; written as run.json in the results directory
type RunManifest struct {
	APIVersion  string         `yaml:"apiVersion" json:"apiVersion"`
	Kind        string         `yaml:"kind" json:"kind"`
	RunID       string         `yaml:"runId" json:"runId"`
	ModelFile   string         `yaml:"modelFile" json:"modelFile"`
	ModelID     string         `yaml:"modelId" json:"modelId"`
	Variables   []string       `yaml:"variables" json:"variables"`
	Calculators []string       `yaml:"calculators" json:"calculators"`
	Cases       int            `yaml:"cases" json:"cases"`
	Status      map[Status]int `yaml:"status" json:"status"`
	CacheHits   int            `yaml:"cacheHits" json:"cacheHits"`
	StartedAt   string         `yaml:"startedAt" json:"startedAt"`
	FinishedAt  string         `yaml:"finishedAt" json:"finishedAt"`
}
