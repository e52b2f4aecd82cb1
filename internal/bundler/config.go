package bundler

// Config is the derived bundle configuration. It holds no functions so two
// configs built from the same options compare equal with reflect.DeepEqual.
type Config struct {
	Mode         Env          `yaml:"mode" json:"mode"`
	Devtool      string       `yaml:"devtool" json:"devtool"`
	Bail         bool         `yaml:"bail" json:"bail"`
	Entry        []string     `yaml:"entry" json:"entry"`
	Output       Output       `yaml:"output" json:"output"`
	Module       Module       `yaml:"module" json:"module"`
	Plugins      []Plugin     `yaml:"plugins" json:"plugins"`
	Resolve      Resolve      `yaml:"resolve" json:"resolve"`
	Optimization Optimization `yaml:"optimization" json:"optimization"`

	// Admin and Roots are the effective values after defaults were applied.
	Admin  AdminOptions `yaml:"admin" json:"admin"`
	Roots  Roots        `yaml:"roots" json:"roots"`
	AppDir string       `yaml:"appDir" json:"appDir"`
}

// Output describes where and under which names bundles are written.
// Names use esbuild placeholders ([name], [hash], [dir], [ext]).
type Output struct {
	Path          string `yaml:"path" json:"path"`
	PublicPath    string `yaml:"publicPath" json:"publicPath"`
	Filename      string `yaml:"filename" json:"filename"`
	ChunkFilename string `yaml:"chunkFilename" json:"chunkFilename"`
	AssetFilename string `yaml:"assetFilename" json:"assetFilename"`
}

type Module struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// RuleType is the asset handling for rules without loaders.
type RuleType string

const (
	// RuleTypeResource emits the file and references it by URL.
	RuleTypeResource RuleType = "asset/resource"
	// RuleTypeAsset inlines files up to InlineLimit bytes, emits larger ones.
	RuleTypeAsset RuleType = "asset"
)

// Rule matches module paths and names how they are transformed.
// Test and Exclude are regular expressions matched against the module path,
// ContentTest against the module source text (only within OneOf).
type Rule struct {
	Name        string   `yaml:"name" json:"name"`
	Test        string   `yaml:"test,omitempty" json:"test,omitempty"`
	ContentTest string   `yaml:"contentTest,omitempty" json:"contentTest,omitempty"`
	Include     []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude     string   `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	OneOf       []Rule   `yaml:"oneOf,omitempty" json:"oneOf,omitempty"`
	Pipeline    Pipeline `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
	Use         []Loader `yaml:"use,omitempty" json:"use,omitempty"`
	Type        RuleType `yaml:"type,omitempty" json:"type,omitempty"`
	InlineLimit int64    `yaml:"inlineLimit,omitempty" json:"inlineLimit,omitempty"`
}

// Loader is a named transform with its options.
type Loader struct {
	Name    string         `yaml:"name" json:"name"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// Plugin is a named build-time plugin with its options.
type Plugin struct {
	Name    string         `yaml:"name" json:"name"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

type Resolve struct {
	Alias      map[string]string `yaml:"alias" json:"alias"`
	Symlinks   bool              `yaml:"symlinks" json:"symlinks"`
	Extensions []string          `yaml:"extensions" json:"extensions"`
	Modules    []string          `yaml:"modules" json:"modules"`
	MainFields []string          `yaml:"mainFields" json:"mainFields"`
}

type Optimization struct {
	Minimize     bool   `yaml:"minimize" json:"minimize"`
	Minimizer    Plugin `yaml:"minimizer" json:"minimizer"`
	ModuleIDs    string `yaml:"moduleIds" json:"moduleIds"`
	RuntimeChunk bool   `yaml:"runtimeChunk" json:"runtimeChunk"`
}

// Plugin returns the named plugin and whether it is present.
func (c Config) Plugin(name string) (Plugin, bool) {
	for _, p := range c.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return Plugin{}, false
}

// Rule returns the named rule and whether it is present.
func (c Config) Rule(name string) (Rule, bool) {
	for _, r := range c.Module.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}
