package main

import (
	"log"

	"github.com/hoanghaiduong/gym-food-rag/internal/config"
	"github.com/hoanghaiduong/gym-food-rag/internal/model"
	"github.com/hoanghaiduong/gym-food-rag/pkg/database"
)

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.LogLevel)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		log.Fatalf("Error: Failed to create vector extension: %v", err)
	}

	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.KnowledgeItem{},
		&model.ChatSession{},
		&model.ChatTurn{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating vector indexes...")
	indexSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_knowledge_items_dense ON knowledge_items USING hnsw (dense_embedding vector_cosine_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_items_sparse ON knowledge_items USING hnsw (sparse_embedding sparsevec_ip_ops);`,
	}
	for _, sql := range indexSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create index: %v. Continuing...", err)
		}
	}

	log.Println("Migration completed successfully.")
}
