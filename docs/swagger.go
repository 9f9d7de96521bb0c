package docs

// @title College Pathfinder API
// @version 1.0
// @description Match scoring and coaching insights for college applicants, backed by a hosted row store and optional LLM refinement.

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
