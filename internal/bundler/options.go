package bundler

// Env selects the build mode.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

// Edition selects which root directory ee_else_ce imports resolve to.
type Edition string

const (
	EditionCE Edition = "ce"
	EditionEE Edition = "ee"
)

// AdminOptions is the free-form options bag passed through to the admin
// front-end at build time.
type AdminOptions struct {
	// Backend URL the admin panel talks to
	Backend string `yaml:"backend" json:"backend"`
	// AdminPath is the public path the panel is served under
	AdminPath string `yaml:"adminPath" json:"adminPath"`
	// Features lists the enabled enterprise features
	Features []string `yaml:"features" json:"features"`
	// Edition selects the code variant for ee_else_ce imports
	Edition Edition `yaml:"edition" json:"edition"`
}

// DefaultAdminOptions returns the options used when none are supplied.
func DefaultAdminOptions() AdminOptions {
	return AdminOptions{
		Backend:   "http://localhost:1337",
		AdminPath: "/admin/",
		Features:  []string{},
		Edition:   EditionCE,
	}
}

// Roots are the two code variant directories, relative to the app directory.
type Roots struct {
	EERoot string `yaml:"eeRoot" json:"eeRoot"`
	CERoot string `yaml:"ceRoot" json:"ceRoot"`
}

// DefaultRoots returns the roots used when none are supplied.
func DefaultRoots() Roots {
	return Roots{
		EERoot: "./ee/admin",
		CERoot: "./admin/src",
	}
}

// Root returns the directory the given edition resolves to.
func (r Roots) Root(edition Edition) string {
	if edition == EditionEE {
		return r.EERoot
	}
	return r.CERoot
}

// Options are the inputs of a single configuration build. Path existence is
// the caller's responsibility.
type Options struct {
	AppDir        string        `yaml:"appDir" json:"appDir"`
	CacheDir      string        `yaml:"cacheDir" json:"cacheDir"`
	Dest          string        `yaml:"dest" json:"dest"`
	Entry         string        `yaml:"entry" json:"entry"`
	Env           Env           `yaml:"env" json:"env"`
	Optimize      bool          `yaml:"optimize" json:"optimize"`
	PluginsPath   []string      `yaml:"pluginsPath" json:"pluginsPath"`
	Admin         *AdminOptions `yaml:"options,omitempty" json:"options,omitempty"`
	Roots         *Roots        `yaml:"roots,omitempty" json:"roots,omitempty"`
	UseTypeScript bool          `yaml:"useTypeScript" json:"useTypeScript"`
}

// IsProduction reports whether the options describe a production build.
func (o Options) IsProduction() bool {
	return o.Env == EnvProduction
}

// adminOptions returns a copy of the admin options, or the defaults.
func (o Options) adminOptions() AdminOptions {
	if o.Admin == nil {
		return DefaultAdminOptions()
	}
	admin := *o.Admin
	admin.Features = append([]string{}, o.Admin.Features...)
	if admin.Edition == "" {
		admin.Edition = EditionCE
	}
	return admin
}

func (o Options) roots() Roots {
	if o.Roots == nil {
		return DefaultRoots()
	}
	return *o.Roots
}
