// Package environment names the application environments (development,
// staging, production) and carries the current one through context.Context.
//
//	env := environment.Parse(os.Getenv("APP_ENV"))
//	ctx = environment.WithContext(ctx, env)
//
//	if env, ok := environment.FromContext(ctx); ok && env == environment.Production {
//		// ...
//	}
package environment
