// seed genera el script SQL del catálogo de demostración (categorías, productos con y sin
// tallas) y de los usuarios del personal del club.
//
// Uso: go run ./cmd/seed [-admin-password secreto] [-out archivo.sql]
// Sin -out escribe en stdout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type category struct {
	code, name string
}

type product struct {
	sku, name, category string
	price               int64
	stock               int
	sizes               map[string]int
	minStock            int
	minBySize           map[string]int
}

var categories = []category{
	{"CAMISETAS", "Camisetas oficiales"},
	{"ENTRENAMIENTO", "Ropa de entrenamiento"},
	{"ACCESORIOS", "Accesorios"},
}

var products = []product{
	{sku: "CAM-LOCAL-26", name: "Camiseta local 2026", category: "CAMISETAS", price: 189900,
		sizes: map[string]int{"S": 10, "M": 25, "L": 20, "XL": 8}, minBySize: map[string]int{"M": 5, "L": 5}},
	{sku: "CAM-VISIT-26", name: "Camiseta visitante 2026", category: "CAMISETAS", price: 189900,
		sizes: map[string]int{"S": 6, "M": 15, "L": 12, "XL": 4}, minBySize: map[string]int{"M": 4}},
	{sku: "SUD-ENT-01", name: "Sudadera de entrenamiento", category: "ENTRENAMIENTO", price: 149900,
		sizes: map[string]int{"M": 10, "L": 10}},
	{sku: "BAL-OFI-01", name: "Balón oficial", category: "ACCESORIOS", price: 120000, stock: 30, minStock: 5},
	{sku: "BUF-CLUB-01", name: "Bufanda del club", category: "ACCESORIOS", price: 45000, stock: 80, minStock: 10},
}

func main() {
	adminPassword := flag.String("admin-password", "admin12345", "contraseña del usuario admin")
	staffPassword := flag.String("staff-password", "staff12345", "contraseña del usuario staff")
	outPath := flag.String("out", "", "archivo de salida (vacío = stdout)")
	flag.Parse()

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	fmt.Fprintln(out, "-- Catálogo de demostración de la tienda del club")
	fmt.Fprintln(out, "BEGIN;")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "-- 1. Usuarios del personal")
	for _, u := range []struct{ email, name, role, password string }{
		{"admin@club.test", "Administrador", "admin", *adminPassword},
		{"staff@club.test", "Tienda", "staff", *staffPassword},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Hash de contraseña: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(out, "INSERT INTO users (id, email, password_hash, name, role) VALUES ('%s', '%s', '%s', '%s', '%s')\n",
			uuid.New().String(), u.email, hash, escapeSQL(u.name), u.role)
		fmt.Fprintln(out, "ON CONFLICT (email) DO NOTHING;")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "-- 2. Categorías")
	for _, c := range categories {
		fmt.Fprintf(out, "INSERT INTO categories (id, name, code) VALUES ('%s', '%s', '%s')\n",
			uuid.New().String(), escapeSQL(c.name), c.code)
		fmt.Fprintln(out, "ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name;")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "-- 3. Productos (size_stock gobierna el stock de los productos con tallas)")
	for _, p := range products {
		fmt.Fprintln(out, "INSERT INTO products (id, sku, name, category_id, price, stock, size_stock, min_stock, min_stock_by_size)")
		fmt.Fprintf(out, "SELECT '%s', '%s', '%s', id, %d, %d, '%s'::jsonb, %d, '%s'::jsonb FROM categories WHERE code = '%s'\n",
			uuid.New().String(), p.sku, escapeSQL(p.name), p.price, p.stock,
			jsonMap(p.sizes), p.minStock, jsonMap(p.minBySize), p.category)
		fmt.Fprintln(out, "ON CONFLICT (sku) DO NOTHING;")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "COMMIT;")

	if *outPath != "" {
		fmt.Printf("Generado %s: %d categorías, %d productos\n", *outPath, len(categories), len(products))
	}
}

func jsonMap(m map[string]int) string {
	if len(m) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(m)
	return escapeSQL(string(b))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
