// Package imsdb lists and downloads movie scripts from imsdb.com.
package imsdb
