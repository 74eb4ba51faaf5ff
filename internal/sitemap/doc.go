// Package sitemap discovers the URLs a site advertises through robots.txt
// and sitemap files. Discovery runs use it to seed additional pages when
// the entry page alone does not link to the sought content.
package sitemap
