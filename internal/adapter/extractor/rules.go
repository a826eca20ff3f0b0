package extractor

import (
	"strings"

	"github-project-compare/internal/domain"
)

// Category 规则命中后写入的位置
type Category string

const (
	CategoryFrontend   Category = "frontend"
	CategoryBackend    Category = "backend"
	CategoryDatabase   Category = "database"
	CategoryDeployment Category = "deployment"
	CategoryTools      Category = "tools"
	CategoryFeature    Category = "feature"
)

// Source 规则匹配的对象
type Source int

const (
	// SourceDependency 清单文件中的依赖名 (精确匹配，Prefix 时按前缀)
	SourceDependency Source = iota
	// SourceFileName 根目录下的文件/目录名 (忽略大小写的精确匹配)
	SourceFileName
	// SourceContent 文件内容 (忽略大小写的子串匹配)
	SourceContent
)

// Rule 一条声明式识别规则
type Rule struct {
	Source   Source
	Pattern  string
	Prefix   bool
	Category Category
	Label    string
}

func dep(pattern string, c Category, label string) Rule {
	return Rule{Source: SourceDependency, Pattern: pattern, Category: c, Label: label}
}

func depPrefix(pattern string, c Category, label string) Rule {
	return Rule{Source: SourceDependency, Pattern: pattern, Prefix: true, Category: c, Label: label}
}

func file(pattern string, c Category, label string) Rule {
	return Rule{Source: SourceFileName, Pattern: pattern, Category: c, Label: label}
}

func code(pattern string, c Category, label string) Rule {
	return Rule{Source: SourceContent, Pattern: pattern, Category: c, Label: label}
}

// Rules 全部识别规则，按表内顺序匹配
var Rules = []Rule{
	// --- 依赖 → 前端 ---
	dep("react", CategoryFrontend, "React"),
	dep("react-dom", CategoryFrontend, "React DOM"),
	dep("next", CategoryFrontend, "Next.js"),
	dep("vue", CategoryFrontend, "Vue.js"),
	dep("nuxt", CategoryFrontend, "Nuxt.js"),
	dep("svelte", CategoryFrontend, "Svelte"),
	depPrefix("@angular/", CategoryFrontend, "Angular"),
	dep("tailwindcss", CategoryFrontend, "Tailwind CSS"),
	depPrefix("@mui/", CategoryFrontend, "Material UI"),
	dep("styled-components", CategoryFrontend, "Styled Components"),
	dep("bootstrap", CategoryFrontend, "Bootstrap"),
	dep("framer-motion", CategoryFrontend, "Framer Motion"),
	dep("redux", CategoryFrontend, "Redux"),
	dep("@reduxjs/toolkit", CategoryFrontend, "Redux"),
	dep("react-router-dom", CategoryFrontend, "React Router"),

	// --- 依赖 → 后端 ---
	dep("express", CategoryBackend, "Express.js"),
	dep("fastify", CategoryBackend, "Fastify"),
	dep("koa", CategoryBackend, "Koa"),
	depPrefix("@nestjs/", CategoryBackend, "NestJS"),
	dep("flask", CategoryBackend, "Flask"),
	dep("django", CategoryBackend, "Django"),
	dep("fastapi", CategoryBackend, "FastAPI"),
	dep("github.com/gin-gonic/gin", CategoryBackend, "Gin"),
	dep("github.com/labstack/echo/v4", CategoryBackend, "Echo"),
	dep("github.com/go-chi/chi/v5", CategoryBackend, "Chi"),
	dep("socket.io", CategoryBackend, "Socket.IO"),
	dep("graphql", CategoryBackend, "GraphQL"),

	// --- 依赖 → 数据库 ---
	dep("mongoose", CategoryDatabase, "MongoDB"),
	dep("mongodb", CategoryDatabase, "MongoDB"),
	dep("pg", CategoryDatabase, "PostgreSQL"),
	dep("mysql2", CategoryDatabase, "MySQL"),
	dep("sqlite3", CategoryDatabase, "SQLite"),
	dep("prisma", CategoryDatabase, "Prisma"),
	dep("@prisma/client", CategoryDatabase, "Prisma"),
	dep("redis", CategoryDatabase, "Redis"),
	dep("firebase", CategoryDatabase, "Firebase"),
	dep("@supabase/supabase-js", CategoryDatabase, "Supabase"),
	dep("sqlalchemy", CategoryDatabase, "SQLAlchemy"),
	dep("gorm.io/gorm", CategoryDatabase, "GORM"),
	dep("github.com/jackc/pgx/v5", CategoryDatabase, "PostgreSQL"),

	// --- 依赖 → 工具 ---
	dep("typescript", CategoryTools, "TypeScript"),
	dep("eslint", CategoryTools, "ESLint"),
	dep("prettier", CategoryTools, "Prettier"),
	dep("jest", CategoryTools, "Jest"),
	dep("vitest", CategoryTools, "Vitest"),
	dep("webpack", CategoryTools, "Webpack"),
	dep("vite", CategoryTools, "Vite"),
	depPrefix("@babel/", CategoryTools, "Babel"),
	dep("pytest", CategoryTools, "Pytest"),
	dep("github.com/stretchr/testify", CategoryTools, "Testify"),

	// --- 根目录文件 → 部署 ---
	file("dockerfile", CategoryDeployment, "Docker"),
	file("docker-compose.yml", CategoryDeployment, "Docker Compose"),
	file("docker-compose.yaml", CategoryDeployment, "Docker Compose"),
	file("vercel.json", CategoryDeployment, "Vercel"),
	file("netlify.toml", CategoryDeployment, "Netlify"),
	file("procfile", CategoryDeployment, "Heroku"),
	file("fly.toml", CategoryDeployment, "Fly.io"),
	file("render.yaml", CategoryDeployment, "Render"),
	file("app.yaml", CategoryDeployment, "Google App Engine"),
	file(".github", CategoryDeployment, "GitHub Actions"),
	file(".gitlab-ci.yml", CategoryDeployment, "GitLab CI"),
	file("k8s", CategoryDeployment, "Kubernetes"),
	file("serverless.yml", CategoryDeployment, "Serverless Framework"),

	// --- 文件内容 → 技术/功能 ---
	code("from 'react'", CategoryFrontend, "React"),
	code("from \"react\"", CategoryFrontend, "React"),
	code("usestate(", CategoryFeature, "Interactive UI State"),
	code("socket.io", CategoryFeature, "Real-time Communication"),
	code("new websocket(", CategoryFeature, "Real-time Communication"),
	code("jsonwebtoken", CategoryFeature, "JWT Authentication"),
	code("bcrypt", CategoryFeature, "Password Hashing"),
	code("passport.", CategoryFeature, "User Authentication"),
	code("firebase/auth", CategoryFeature, "User Authentication"),
	code("stripe", CategoryFeature, "Payment Processing"),
	code("openai", CategoryFeature, "AI Integration"),
	code("@google/generative-ai", CategoryFeature, "AI Integration"),
	code("tensorflow", CategoryFeature, "Machine Learning"),
	code("chart.js", CategoryFeature, "Data Visualization"),
	code("recharts", CategoryFeature, "Data Visualization"),
	code("localstorage", CategoryFeature, "Local Storage Persistence"),
	code("nodemailer", CategoryFeature, "Email Notifications"),
	code("multer", CategoryFeature, "File Upload"),
	code("i18next", CategoryFeature, "Internationalization"),
	code("app.get(", CategoryFeature, "REST API"),
	code("router.get(", CategoryFeature, "REST API"),
	code("@app.route(", CategoryFeature, "REST API"),
	code("axios", CategoryFeature, "API Integration"),
	code("mongoose.connect", CategoryDatabase, "MongoDB"),
	code("createclient(", CategoryDatabase, "Database Client"),
	code("express()", CategoryBackend, "Express.js"),
	code("http.listenandserve", CategoryBackend, "Go net/http"),
	code("@tailwind", CategoryFrontend, "Tailwind CSS"),
	code("describe(", CategoryTools, "Unit Testing"),
	code("github/workflows", CategoryDeployment, "GitHub Actions"),
}

func (r Rule) matchDependency(name string) bool {
	if r.Prefix {
		return strings.HasPrefix(name, r.Pattern)
	}
	return name == r.Pattern
}

// matchRules 单次遍历规则表，返回 source 类型下 matches 判定为命中的规则
func matchRules(source Source, matches func(r Rule) bool) []Rule {
	var hits []Rule
	for _, r := range Rules {
		if r.Source == source && matches(r) {
			hits = append(hits, r)
		}
	}
	return hits
}

// dependencyHits 依赖表命中的规则
func dependencyHits(deps map[string]string) []Rule {
	return matchRules(SourceDependency, func(r Rule) bool {
		for name := range deps {
			if r.matchDependency(strings.ToLower(name)) {
				return true
			}
		}
		return false
	})
}

// fileNameHits 根目录文件名命中的规则
func fileNameHits(listing []domain.ContentEntry) []Rule {
	names := make(map[string]struct{}, len(listing))
	for _, e := range listing {
		names[strings.ToLower(e.Name)] = struct{}{}
	}
	return matchRules(SourceFileName, func(r Rule) bool {
		_, ok := names[r.Pattern]
		return ok
	})
}

// contentHits 文件内容命中的规则 (忽略大小写)
func contentHits(content string) []Rule {
	lower := strings.ToLower(content)
	return matchRules(SourceContent, func(r Rule) bool {
		return strings.Contains(lower, r.Pattern)
	})
}

// apply 把命中的规则写入分析结果
func apply(hits []Rule, a *domain.CodeAnalysis) {
	s := &a.TechnologyStack
	for _, r := range hits {
		switch r.Category {
		case CategoryFrontend:
			s.Frontend = append(s.Frontend, r.Label)
		case CategoryBackend:
			s.Backend = append(s.Backend, r.Label)
		case CategoryDatabase:
			s.Database = append(s.Database, r.Label)
		case CategoryDeployment:
			s.Deployment = append(s.Deployment, r.Label)
		case CategoryTools:
			s.Tools = append(s.Tools, r.Label)
		case CategoryFeature:
			a.KeyFeatures = append(a.KeyFeatures, r.Label)
		}
	}
}
