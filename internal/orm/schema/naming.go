package schema

// DisplayName returns the name a class is compiled and registered under.
// Precedence: a custom name from override, then from the class options,
// then the automatic "<Class>_<suffix>" form, then the class name itself.
func (c *Compiler) DisplayName(cl *Class, override *ModelOptions) (string, error) {
	if cl == nil || cl.Name == "" {
		return "", newError(ErrNoValidClass, "", "", cl, "")
	}
	return displayName(cl, c.classOptions(cl), override)
}

func displayName(cl *Class, opts, override *ModelOptions) (string, error) {
	if opts == nil {
		opts = &ModelOptions{}
	}
	if override == nil {
		override = &ModelOptions{}
	}
	base := cl.Name

	nameFunc := override.Options.CustomNameFunc
	customName := override.Options.CustomName
	if nameFunc == nil && customName == "" {
		nameFunc = opts.Options.CustomNameFunc
		customName = opts.Options.CustomName
	}

	if nameFunc != nil {
		name := nameFunc(opts)
		if name == "" {
			return "", newError(ErrStringLengthExpected, base, "", name, "options.customNameFunc")
		}
		return name, nil
	}

	if override.Options.AutomaticName || opts.Options.AutomaticName {
		suffix := customName
		if suffix == "" {
			suffix, _ = override.SchemaOptions["collection"].(string)
		}
		if suffix == "" {
			suffix, _ = opts.SchemaOptions["collection"].(string)
		}
		if suffix != "" {
			return base + "_" + suffix, nil
		}
		return base, nil
	}

	if customName == "" {
		return base, nil
	}
	return customName, nil
}
