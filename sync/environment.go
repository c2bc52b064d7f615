package sync

// configOptions holds optional configuration for LoadConfigFromEnvironment.
type configOptions struct {
	embeddedMappings EmbeddedMappings
	overlayPath      string
}

// ConfigOption is a functional option for configuring LoadConfigFromEnvironment.
type ConfigOption func(*configOptions)

// ConfigWithEmbeddedMappings replaces the defaults compiled into the binary.
func ConfigWithEmbeddedMappings(mappings EmbeddedMappings) ConfigOption {
	return func(o *configOptions) {
		o.embeddedMappings = mappings
	}
}

// ConfigWithOverlayFile layers a YAML file on top of the defaults.
// An empty path is ignored.
func ConfigWithOverlayFile(path string) ConfigOption {
	return func(o *configOptions) {
		o.overlayPath = path
	}
}

// LoadConfigFromEnvironment loads the layered YAML settings, expanding
// variables through compev, and validates the result.
// Every failure is returned as a *ConfigError.
func LoadConfigFromEnvironment(compev CompositeEnvVar, opts ...ConfigOption) (Config, error) {
	options := configOptions{
		embeddedMappings: DefaultMappings,
	}
	for _, opt := range opts {
		opt(&options)
	}

	var result Config

	defaultsMappingFile, err := options.embeddedMappings.MustFindDefaultsMappingFile()
	if err != nil {
		return result, &ConfigError{Component: "defaults", Message: "failed to read defaults mapping file", Err: err}
	}
	sources := []MappingFile{defaultsMappingFile}

	if options.overlayPath != "" {
		overlayMappingFile, err := ReadMappingFile(options.overlayPath)
		if err != nil {
			return result, &ConfigError{Component: options.overlayPath, Message: "failed to read config file", Err: err}
		}
		sources = append(sources, overlayMappingFile)
	}

	result, err = YAMLConfigUnmarshaler{}.Unmarshal(compev, sources...)
	if err != nil {
		return result, &ConfigError{Message: "failed to load config", Err: err}
	}

	err = result.Validate()
	return result, err
}
